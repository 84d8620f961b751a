// internal/analysis/parse.go
package analysis

import (
	"encoding/json"

	"github.com/xeipuuv/gojsonschema"

	"github.com/watchgrid/cortex/internal/events"
)

// Schemas for the structured shapes the prompts request. A response that
// fails its schema degrades to the raw variant rather than erroring.
const queueSchema = `{
	"type": "object",
	"properties": {
		"people_count": {"type": "number"},
		"queue_formation": {"type": "string"},
		"estimated_wait_minutes": {"type": "number"},
		"crowd_density": {"type": "string"},
		"staff_needed": {"type": "boolean"},
		"description": {"type": "string"}
	},
	"required": ["people_count", "description"]
}`

const inventorySchema = `{
	"type": "object",
	"properties": {
		"products_visible": {"type": "number"},
		"shelf_capacity_used": {"type": "number"},
		"restocking_needed": {"type": "boolean"},
		"empty_spots": {"type": "number"},
		"organization_quality": {"type": "string"},
		"description": {"type": "string"}
	},
	"required": ["products_visible", "description"]
}`

const safetySchema = `{
	"type": "object",
	"properties": {
		"hazard_detected": {"type": "boolean"},
		"hazard_type": {"type": "string"},
		"immediate_action_required": {"type": "boolean"},
		"affected_area": {"type": "string"},
		"severity": {"type": "string"},
		"description": {"type": "string"}
	},
	"required": ["hazard_detected", "description"]
}`

var shapeSchemas = map[string]*gojsonschema.Schema{}

func init() {
	for shape, raw := range map[string]string{
		"queue":     queueSchema,
		"inventory": inventorySchema,
		"safety":    safetySchema,
	} {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			panic("analysis: invalid builtin schema for " + shape + ": " + err.Error())
		}
		shapeSchemas[shape] = schema
	}
}

// ToStructured converts a deep-analysis result into the tagged payload
// union for the given shape. Structured data is admitted only when it
// validates against the shape's schema; anything else becomes the raw
// variant so the event keeps its pre-existing cheap description.
func ToStructured(res Result, shape string) events.StructuredData {
	if res.Structured == nil {
		return events.StructuredData{Kind: events.KindRaw, Raw: res.Raw}
	}

	schema, ok := shapeSchemas[shape]
	if !ok {
		// Generic analyses carry whatever the model produced.
		return events.StructuredData{Kind: events.KindGeneric, Generic: res.Structured}
	}

	doc, err := json.Marshal(res.Structured)
	if err != nil {
		return events.StructuredData{Kind: events.KindRaw, Raw: res.Raw}
	}
	validation, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil || !validation.Valid() {
		return events.StructuredData{Kind: events.KindRaw, Raw: res.Raw}
	}

	switch shape {
	case "queue":
		var q events.QueueMetrics
		if json.Unmarshal(doc, &q) != nil {
			return events.StructuredData{Kind: events.KindRaw, Raw: res.Raw}
		}
		return events.StructuredData{Kind: events.KindQueueMetrics, Queue: &q}
	case "inventory":
		var inv events.InventoryStatus
		if json.Unmarshal(doc, &inv) != nil {
			return events.StructuredData{Kind: events.KindRaw, Raw: res.Raw}
		}
		return events.StructuredData{Kind: events.KindInventoryStatus, Inventory: &inv}
	case "safety":
		var sa events.SafetyAssessment
		if json.Unmarshal(doc, &sa) != nil {
			return events.StructuredData{Kind: events.KindRaw, Raw: res.Raw}
		}
		return events.StructuredData{Kind: events.KindSafetyAssessment, Safety: &sa}
	default:
		return events.StructuredData{Kind: events.KindGeneric, Generic: res.Structured}
	}
}
