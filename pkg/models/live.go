package models

// LiveMessage is the text frame pushed on /camera/{id}/live next to binary image frames.
type LiveMessage struct {
	MotionDetected bool `json:"motion_detected"`
}
