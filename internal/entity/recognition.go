package entity

// AcquisitionMethod tells downstream stages how the text was obtained.
type AcquisitionMethod string

const (
	MethodDirectText  AcquisitionMethod = "direct-text"
	MethodOpticalScan AcquisitionMethod = "optical"
	MethodNone        AcquisitionMethod = "none" // all passes failed; text is empty
)

// PassDiagnostics describes one optical recognition pass.
type PassDiagnostics struct {
	SegmentationMode string  `json:"segmentation_mode"`
	Score            float64 `json:"score"`
	Confidence       float64 `json:"confidence"` // recognizer-reported, 0..1
	TextLength       int     `json:"text_length"`
}

// RecognitionResult is the acquired plain text plus acquisition diagnostics.
// Produced once per document and immutable after creation.
type RecognitionResult struct {
	Text     string
	Method   AcquisitionMethod
	Pages    int
	BestPass *PassDiagnostics // nil for direct extraction
	Warnings []string
}
