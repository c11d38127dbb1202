package screening

import (
	"strings"

	"github.com/google/uuid"
)

// Controller owns the ScreenState and every transition on it.
// It is not safe for concurrent use; the screen's update loop is its only caller.
type Controller struct {
	catalog Catalog
	state   ScreenState
	newID   func() string
}

// NewController starts in Configuring with the catalogue's default variant.
func NewController(catalog Catalog) *Controller {
	return &Controller{
		catalog: catalog,
		state:   ScreenState{Phase: PhaseConfiguring, Variant: catalog.Default()},
		newID:   uuid.NewString,
	}
}

// Catalog exposes the variants and their quotas for display.
func (c *Controller) Catalog() Catalog { return c.catalog }

// State returns a copy of the live state.
func (c *Controller) State() ScreenState {
	s := c.state
	if s.Image != nil {
		img := *s.Image
		s.Image = &img
	}
	if s.Pending != nil {
		req := *s.Pending
		s.Pending = &req
	}
	if s.Result != nil {
		res := *s.Result
		s.Result = &res
	}
	return s
}

func (c *Controller) Phase() Phase { return c.state.Phase }

// SelectVariant always applies. A request already in flight keeps its snapshot.
func (c *Controller) SelectVariant(v Variant) {
	c.state.Variant = v
}

// SelectTag selects a catalogue variant by tag.
func (c *Controller) SelectTag(tag string) bool {
	v, ok := c.catalog.Lookup(tag)
	if !ok {
		return false
	}
	c.SelectVariant(v)
	return true
}

// SetImage replaces the attached slide. Any change, nil included, invalidates a
// shown result and returns to Configuring. The form is locked while submitting.
func (c *Controller) SetImage(img *SlideImage) {
	if c.state.Phase == PhaseSubmitting {
		return
	}
	if img == nil {
		c.state.Image = nil
	} else {
		cp := *img
		c.state.Image = &cp
	}
	if c.state.Result != nil {
		c.state.Result = nil
		c.state.Phase = PhaseConfiguring
	}
}

func (c *Controller) SetOrgan(text string) {
	if c.state.Phase == PhaseSubmitting {
		return
	}
	c.state.Organ = text
}

func (c *Controller) SetClinicalContext(text string) {
	if c.state.Phase == PhaseSubmitting {
		return
	}
	c.state.ClinicalContext = text
}

// CanSubmit is derived on every call: image attached, organ not blank, nothing in flight.
func (c *Controller) CanSubmit() bool {
	return c.state.Image != nil &&
		strings.TrimSpace(c.state.Organ) != "" &&
		c.state.Phase != PhaseSubmitting
}

// Submit snapshots the selection into a request and enters Submitting.
// It reports false, building nothing, when CanSubmit is false; repeated calls while
// a request is in flight are no-ops.
func (c *Controller) Submit() (AnalysisRequest, bool) {
	if !c.CanSubmit() {
		return AnalysisRequest{}, false
	}
	req := AnalysisRequest{
		ID:              c.newID(),
		Variant:         c.state.Variant,
		Organ:           strings.TrimSpace(c.state.Organ),
		ClinicalContext: c.state.ClinicalContext,
		Image:           *c.state.Image,
	}
	c.state.Phase = PhaseSubmitting
	c.state.Result = nil
	pending := req
	c.state.Pending = &pending
	return req, true
}

// OnSuccess moves Submitting to ResultReady. Responses for another request, or
// arriving when nothing is in flight, are dropped and reported as false.
func (c *Controller) OnSuccess(requestID string, res AnalysisResult) bool {
	if !c.inFlight(requestID) {
		return false
	}
	c.state.Phase = PhaseResultReady
	c.state.Pending = nil
	c.state.Result = &res
	return true
}

// OnFailure discards the in-flight request and returns to Configuring with the
// form untouched. The returned notice is meant to be shown once.
func (c *Controller) OnFailure(requestID string, _ error) (Notice, bool) {
	if !c.inFlight(requestID) {
		return Notice{}, false
	}
	c.state.Phase = PhaseConfiguring
	c.state.Pending = nil
	return FailureNotice(), true
}

// NewAnalysis clears image, organ, context and result together. The variant
// selection survives. It is refused while a request is in flight.
func (c *Controller) NewAnalysis() bool {
	if c.state.Phase == PhaseSubmitting {
		return false
	}
	c.state = ScreenState{Phase: PhaseConfiguring, Variant: c.state.Variant}
	return true
}

func (c *Controller) inFlight(id string) bool {
	return c.state.Phase == PhaseSubmitting && c.state.Pending != nil && c.state.Pending.ID == id
}
