package screening

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()
	c := NewController(DefaultCatalog())
	n := 0
	c.newID = func() string {
		n++
		return fmt.Sprintf("req-%d", n)
	}
	return c
}

func slide() *SlideImage {
	return &SlideImage{URI: "/slides/a.jpg", Name: "a.jpg", MIME: "image/jpeg"}
}

func TestCanSubmitRequiresImage(t *testing.T) {
	c := newTestController(t)
	for _, tier := range c.Catalog().Tiers() {
		c.SelectVariant(tier.Variant)
		for _, organ := range []string{"", "Liver", "  Kidney  "} {
			c.SetOrgan(organ)
			require.False(t, c.CanSubmit(), "variant %s organ %q", tier.Variant.Tag, organ)
		}
	}
}

func TestCanSubmitRejectsBlankOrgan(t *testing.T) {
	c := newTestController(t)
	c.SetImage(slide())
	for _, organ := range []string{"", " ", "\t", "\n  \t", "  "} {
		c.SetOrgan(organ)
		require.False(t, c.CanSubmit(), "organ %q", organ)
	}
	c.SetOrgan(" Liver ")
	require.True(t, c.CanSubmit())
}

func TestSubmitSnapshotsTrimmedRequest(t *testing.T) {
	c := newTestController(t)
	require.True(t, c.SelectTag("jr"))
	c.SetImage(slide())
	c.SetOrgan("  Liver ")
	c.SetClinicalContext("HBV positive")

	req, ok := c.Submit()
	require.True(t, ok)
	require.Equal(t, "req-1", req.ID)
	require.Equal(t, "JR", req.Variant.Tag)
	require.Equal(t, "Liver", req.Organ)
	require.Equal(t, "HBV positive", req.ClinicalContext)
	require.Equal(t, *slide(), req.Image)
	require.Equal(t, PhaseSubmitting, c.Phase())
	require.False(t, c.CanSubmit())

	// later edits never reach the snapshot
	c.SelectTag("SR")
	require.Equal(t, "JR", c.State().Pending.Variant.Tag)
}

func TestSubmitWhileSubmittingIsNoop(t *testing.T) {
	c := newTestController(t)
	c.SetImage(slide())
	c.SetOrgan("Liver")
	first, ok := c.Submit()
	require.True(t, ok)

	for i := 0; i < 5; i++ {
		_, again := c.Submit()
		require.False(t, again)
	}
	require.Equal(t, first.ID, c.State().Pending.ID)

	// the id generator was consulted once
	next := c.newID()
	require.Equal(t, "req-2", next)
}

func TestFormLockedWhileSubmitting(t *testing.T) {
	c := newTestController(t)
	c.SetImage(slide())
	c.SetOrgan("Liver")
	_, ok := c.Submit()
	require.True(t, ok)

	c.SetOrgan("Lung")
	c.SetClinicalContext("changed")
	c.SetImage(nil)
	require.False(t, c.NewAnalysis())

	s := c.State()
	require.Equal(t, "Liver", s.Organ)
	require.Empty(t, s.ClinicalContext)
	require.NotNil(t, s.Image)
}

func TestScenarioSuccess(t *testing.T) {
	c := newTestController(t)
	c.SelectTag("SR")
	c.SetOrgan("Liver")
	c.SetClinicalContext("")
	c.SetImage(slide())

	req, ok := c.Submit()
	require.True(t, ok)

	want := AnalysisResult{
		Observations: "...",
		Diagnosis:    "Hepatocellular carcinoma, suspected",
		Confidence:   "High",
		Disclaimer:   "Not a substitute for pathologist review",
	}
	require.True(t, c.OnSuccess(req.ID, want))
	require.Equal(t, PhaseResultReady, c.Phase())

	got, ok := NewPresenter(c).Result()
	require.True(t, ok)
	require.Equal(t, want, got)
	require.Nil(t, c.State().Pending)
}

func TestScenarioFailureKeepsForm(t *testing.T) {
	c := newTestController(t)
	c.SelectTag("SR")
	c.SetOrgan("Liver")
	c.SetClinicalContext("")
	c.SetImage(slide())
	before := c.State()

	req, ok := c.Submit()
	require.True(t, ok)

	notice, applied := c.OnFailure(req.ID, errors.New("status 502"))
	require.True(t, applied)
	require.Equal(t, NoticeTransportFailure, notice.Kind)
	require.Equal(t, "Analysis failed", notice.Title)

	after := c.State()
	require.Equal(t, before, after)
	require.Equal(t, PhaseConfiguring, after.Phase)
	require.Equal(t, "Liver", after.Organ)
	require.NotNil(t, after.Image)
	require.True(t, c.CanSubmit(), "retry needs no re-entry")

	_, ok = NewPresenter(c).Result()
	require.False(t, ok)
}

func TestNewAnalysisResetsToInitialState(t *testing.T) {
	c := newTestController(t)
	initial := c.State()

	c.SetImage(slide())
	c.SetOrgan("Liver")
	c.SetClinicalContext("biopsy")
	req, _ := c.Submit()
	c.OnSuccess(req.ID, AnalysisResult{Diagnosis: "x"})

	require.True(t, NewPresenter(c).NewAnalysis())
	require.Equal(t, initial, c.State())
	require.False(t, c.CanSubmit())
}

func TestNewImageClearsResult(t *testing.T) {
	c := newTestController(t)
	c.SetImage(slide())
	c.SetOrgan("Liver")
	req, _ := c.Submit()
	c.OnSuccess(req.ID, AnalysisResult{Diagnosis: "x"})

	other := &SlideImage{URI: "/slides/b.jpg", Name: "b.jpg", MIME: "image/jpeg"}
	c.SetImage(other)
	s := c.State()
	require.Equal(t, PhaseConfiguring, s.Phase)
	require.Nil(t, s.Result)
	require.Equal(t, "b.jpg", s.Image.Name)
	require.Equal(t, "Liver", s.Organ)
}

func TestClearingImageClearsResult(t *testing.T) {
	c := newTestController(t)
	c.SetImage(slide())
	c.SetOrgan("Liver")
	req, _ := c.Submit()
	c.OnSuccess(req.ID, AnalysisResult{Diagnosis: "x"})

	c.SetImage(nil)
	s := c.State()
	require.Equal(t, PhaseConfiguring, s.Phase)
	require.Nil(t, s.Result)
	require.Nil(t, s.Image)
	require.False(t, c.CanSubmit())
}

func TestStaleResponsesAreDropped(t *testing.T) {
	c := newTestController(t)
	c.SetImage(slide())
	c.SetOrgan("Liver")

	require.False(t, c.OnSuccess("req-0", AnalysisResult{}), "nothing in flight")
	_, applied := c.OnFailure("req-0", errors.New("late"))
	require.False(t, applied)

	req, _ := c.Submit()
	require.False(t, c.OnSuccess("someone-else", AnalysisResult{}))
	require.Equal(t, PhaseSubmitting, c.Phase())

	require.True(t, c.OnSuccess(req.ID, AnalysisResult{Diagnosis: "ok"}))
	require.False(t, c.OnSuccess(req.ID, AnalysisResult{Diagnosis: "dup"}))
	res, _ := NewPresenter(c).Result()
	require.Equal(t, "ok", res.Diagnosis)
}

func TestStateReturnsCopies(t *testing.T) {
	c := newTestController(t)
	c.SetImage(slide())
	s := c.State()
	s.Image.Name = "mutated"
	require.Equal(t, "a.jpg", c.State().Image.Name)
}
