package screening

// Presenter projects the controller's result for display.
type Presenter struct {
	ctrl *Controller
}

func NewPresenter(ctrl *Controller) Presenter {
	return Presenter{ctrl: ctrl}
}

// Result is present only in ResultReady.
func (p Presenter) Result() (AnalysisResult, bool) {
	s := p.ctrl.state
	if s.Phase != PhaseResultReady || s.Result == nil {
		return AnalysisResult{}, false
	}
	return *s.Result, true
}

// NewAnalysis discards the shown result and the form.
func (p Presenter) NewAnalysis() bool {
	if p.ctrl.state.Phase != PhaseResultReady {
		return false
	}
	return p.ctrl.NewAnalysis()
}
