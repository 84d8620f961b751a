// internal/analysis/prompts.go
package analysis

import "strings"

const queuePrompt = `Analyze this retail scene and return a JSON response with:
{
  "people_count": number,
  "queue_formation": "line|cluster|scattered",
  "estimated_wait_minutes": number,
  "crowd_density": "low|medium|high",
  "staff_needed": boolean,
  "description": "natural language description"
}`

const crowdPrompt = `Analyze this crowded scene and return a JSON response with:
{
  "people_count": number,
  "queue_formation": "line|cluster|scattered",
  "estimated_wait_minutes": number,
  "crowd_density": "low|medium|high",
  "staff_needed": boolean,
  "description": "natural language description"
}`

const inventoryPrompt = `Analyze this retail inventory scene and return JSON:
{
  "products_visible": number,
  "shelf_capacity_used": number (0-100),
  "restocking_needed": boolean,
  "empty_spots": number,
  "organization_quality": "poor|good|excellent",
  "description": "natural language description"
}`

const safetyPrompt = `Analyze this scene for safety concerns and return JSON:
{
  "hazard_detected": boolean,
  "hazard_type": "spill|obstruction|crowd|equipment|none",
  "immediate_action_required": boolean,
  "affected_area": "description of area",
  "severity": "low|medium|high",
  "description": "natural language description"
}`

const genericPrompt = "Describe this scene in detail, focusing on people, objects, " +
	"activities, and any notable patterns or issues."

// PromptFor selects a prompt by the event's detected-context keyword.
func PromptFor(detectedContext string) string {
	c := strings.ToLower(detectedContext)
	switch {
	case strings.Contains(c, "queue"):
		return queuePrompt
	case strings.Contains(c, "crowd"):
		return crowdPrompt
	case strings.Contains(c, "inventory") || strings.Contains(c, "browsing"):
		return inventoryPrompt
	case strings.Contains(c, "safety") || strings.Contains(c, "hazard") || strings.Contains(c, "rapid"):
		return safetyPrompt
	default:
		return genericPrompt
	}
}

// ShapeFor maps a detected-context keyword to the structured shape its
// prompt asks the model to produce.
func ShapeFor(detectedContext string) string {
	c := strings.ToLower(detectedContext)
	switch {
	case strings.Contains(c, "queue"), strings.Contains(c, "crowd"):
		return "queue"
	case strings.Contains(c, "inventory"), strings.Contains(c, "browsing"):
		return "inventory"
	case strings.Contains(c, "safety"), strings.Contains(c, "hazard"), strings.Contains(c, "rapid"):
		return "safety"
	default:
		return "generic"
	}
}
