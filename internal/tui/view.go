package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/pathoscreen/internal/database/repository"
	"github.com/jask/pathoscreen/internal/screening"
)

func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 80
	}
	var body string
	switch a.modal {
	case modalPicker:
		body = modalStyle.Render(a.picker.View())
	case modalHistory:
		body = modalStyle.Render(a.renderHistory(width - 4))
	default:
		body = a.renderScreen(width)
	}

	footer := []string{}
	if line := a.renderNotice(width); line != "" {
		footer = append(footer, line)
	}
	if a.status != "" {
		footer = append(footer, dimStyle.Render(ansi.Truncate(a.status, width, "…")))
	}
	footer = append(footer, a.help.ShortHelpView(a.helpBindings()))
	return lipgloss.JoinVertical(lipgloss.Left, body, strings.Join(footer, "\n"))
}

func (a *App) renderScreen(width int) string {
	s := a.ctrl.State()
	sections := []string{
		titleStyle.Render("Screening PathoAI"),
		subtitleStyle.Render("Upload a pathology slide for AI-assisted analysis"),
		"",
		a.renderCards(s),
		"",
	}
	if res, ok := a.presenter.Result(); ok {
		sections = append(sections, a.renderResult(res, width))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}
	sections = append(sections,
		a.renderUpload(s, width),
		"",
		labelStyle.Render("Organ *"),
		a.renderField(a.organ.View(), a.focus == focusOrgan, width),
	)
	if hint := organHint(s.Organ); hint != "" {
		sections = append(sections, infoStyle.Render(hint))
	}
	sections = append(sections,
		labelStyle.Render("Clinical Context (Optional)"),
		a.renderField(a.clinical.View(), a.focus == focusContext, width),
		"",
		a.renderButton(s),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a *App) renderCards(s screening.ScreenState) string {
	tiers := a.ctrl.Catalog().Tiers()
	cards := make([]string, 0, len(tiers))
	for i, t := range tiers {
		selected := t.Variant.Tag == s.Variant.Tag
		marker := "○ "
		if selected {
			marker = "● "
		}
		lines := []string{
			labelStyle.Render(marker + t.Variant.Title),
			dimStyle.Render(ansi.Truncate(t.Variant.Description, cardWidth-4, "…")),
			a.bar.ViewAs(t.Quota.FractionUsed()),
		}
		lines = append(lines, textStyle.Render(t.Quota.String()))
		if t.Quota.AtLimit() {
			lines = append(lines, badgeStyle.Render("limit reached"))
		}
		style := cardStyle
		if selected || (a.focus == focusVariants && i == a.cardCursor && a.modal == modalNone) {
			style = cardActiveStyle
		}
		cards = append(cards, style.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (a *App) renderUpload(s screening.ScreenState, width int) string {
	var content string
	if s.Image == nil {
		content = dimStyle.Render("Upload Pathology Slide · press i to choose an image")
	} else {
		content = successStyle.Render("✓ ") + textStyle.Render(ansi.Truncate(s.Image.Name, width-12, "…")) +
			dimStyle.Render("  (i to replace)")
	}
	return panelStyle.Width(min(width-2, 76)).Render(content)
}

func (a *App) renderField(view string, focused bool, width int) string {
	style := fieldStyle
	if focused {
		style = fieldFocusStyle
	}
	return style.Width(min(width-2, 76)).Render(view)
}

func (a *App) renderButton(s screening.ScreenState) string {
	if s.Phase == screening.PhaseSubmitting {
		return buttonDisabledStyle.Render(a.spinner.View() + " Analyzing...")
	}
	if !a.ctrl.CanSubmit() {
		return buttonDisabledStyle.Render("Analyze Slide")
	}
	return buttonStyle.Render("Analyze Slide")
}

func (a *App) renderResult(res screening.AnalysisResult, width int) string {
	w := min(width-4, 76)
	section := func(title, body string) string {
		return labelStyle.Render(title) + "\n" + lipgloss.NewStyle().Width(w).Foreground(colorText).Render(body)
	}
	parts := []string{
		successStyle.Bold(true).Render("Analysis Results"),
		"",
		section("Observations", res.Observations),
		"",
		section("Preliminary Diagnosis", res.Diagnosis),
		"",
		section("Confidence Level", res.Confidence),
		"",
		warnStyle.Render("Disclaimer") + "\n" + lipgloss.NewStyle().Width(w).Foreground(colorSubtext0).Italic(true).Render(res.Disclaimer),
		"",
		dimStyle.Render("[n] New Analysis"),
	}
	return panelStyle.Render(strings.Join(parts, "\n"))
}

func (a *App) renderHistory(width int) string {
	lines := []string{titleStyle.Render("Recent analyses"), ""}
	if len(a.history) == 0 {
		lines = append(lines, dimStyle.Render("  No analyses yet"))
	}
	for _, h := range a.history {
		status := successStyle.Render("✓")
		detail := h.Diagnosis
		if h.Status != repository.StatusCompleted {
			status = errorStyle.Render("✗")
			detail = h.Error
		}
		line := fmt.Sprintf("%s %s  %-3s %-12s %s",
			status,
			h.CreatedAt.Local().Format("2006-01-02 15:04"),
			h.Variant,
			ansi.Truncate(h.Organ, 12, "…"),
			detail,
		)
		lines = append(lines, ansi.Truncate(line, width, "…"))
	}
	lines = append(lines, "", dimStyle.Render("esc close"))
	return strings.Join(lines, "\n")
}

func (a *App) renderNotice(width int) string {
	if a.notice == nil {
		return ""
	}
	style := errorStyle
	if a.notice.Kind == screening.NoticeInvalidImage {
		style = warnStyle
	}
	return ansi.Truncate(style.Bold(true).Render(a.notice.Title)+" "+textStyle.Render(a.notice.Body), width, "…")
}

func (a *App) helpBindings() []key.Binding {
	if a.modal != modalNone {
		return a.keys.modalHelp()
	}
	switch a.ctrl.Phase() {
	case screening.PhaseSubmitting:
		return a.keys.submittingHelp()
	case screening.PhaseResultReady:
		return a.keys.resultHelp()
	}
	if a.focus != focusVariants {
		return a.keys.typingHelp()
	}
	return a.keys.configuringHelp()
}

func organHint(organ string) string {
	if s, ok := screening.SuggestOrgan(organ, screening.KnownOrgans); ok {
		return "did you mean " + s + "?"
	}
	return ""
}
