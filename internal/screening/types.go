package screening

import "context"

// SlideImage is a local handle produced by the media library.
type SlideImage struct {
	URI  string
	Name string
	MIME string
}

// AnalysisRequest is the immutable snapshot sent to the analysis service.
// Only Controller.Submit builds one.
type AnalysisRequest struct {
	ID              string
	Variant         Variant
	Organ           string
	ClinicalContext string
	Image           SlideImage
}

// AnalysisResult is the structured response, kept as display strings.
type AnalysisResult struct {
	Observations string `json:"observations"`
	Diagnosis    string `json:"diagnosis"`
	Confidence   string `json:"confidence"`
	Disclaimer   string `json:"disclaimer"`
}

// Analyzer is the remote analysis collaborator.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) (AnalysisResult, error)
}

// Phase is the discriminant of ScreenState.
type Phase string

const (
	PhaseConfiguring Phase = "configuring"
	PhaseSubmitting  Phase = "submitting"
	PhaseResultReady Phase = "result_ready"
)

// ScreenState is the whole workflow state. Exactly one is live per controller.
type ScreenState struct {
	Phase           Phase
	Variant         Variant
	Image           *SlideImage
	Organ           string
	ClinicalContext string
	Pending         *AnalysisRequest
	Result          *AnalysisResult
}

// NoticeKind classifies one-shot user notifications.
type NoticeKind string

const (
	NoticePermissionDenied NoticeKind = "permission_denied"
	NoticeTransportFailure NoticeKind = "transport_failure"
	NoticeInvalidImage     NoticeKind = "invalid_image"
)

// Notice is shown once and never stored in ScreenState.
type Notice struct {
	Kind  NoticeKind
	Title string
	Body  string
}

func PermissionNotice() Notice {
	return Notice{Kind: NoticePermissionDenied, Title: "Permission required", Body: "Please allow image library access."}
}

func FailureNotice() Notice {
	return Notice{Kind: NoticeTransportFailure, Title: "Analysis failed", Body: "Please try again."}
}

func InvalidImageNotice(name string) Notice {
	return Notice{Kind: NoticeInvalidImage, Title: "Not an image", Body: name + " cannot be attached as a slide."}
}
