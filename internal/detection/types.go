// internal/detection/types.go
package detection

import "context"

// DetectionData is one frame's structured detection result. All ratio
// fields are in [0,1]; the detector contract guarantees the ranges.
type DetectionData struct {
	PersonCount     int            `json:"person_count"`
	ObjectCounts    map[string]int `json:"object_counts"`
	CrowdDensity    float64        `json:"crowd_density"`
	MotionIntensity float64        `json:"motion_intensity"`
	ZoneOccupancy   float64        `json:"zone_occupancy"`
}

// BoundingBox is a raw detection before aggregation into DetectionData.
type BoundingBox struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Confidence float64 `json:"confidence"`
	ClassName  string  `json:"class_name"`
}

// Frame is one opaque captured image payload.
type Frame struct {
	Data     []byte
	CameraID string
}

// Detector runs object detection on a single frame. Implementations must
// be callable at the pipeline's detection cadence without internal queuing.
type Detector interface {
	Detect(ctx context.Context, frame Frame) (DetectionData, error)
}

// FrameSource supplies the current frame from a camera.
type FrameSource interface {
	Capture(ctx context.Context) (Frame, error)
}
