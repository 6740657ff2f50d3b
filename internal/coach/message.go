package coach

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"math"
	"path"
	"strings"
	"text/template"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/salescoach/salescoach/internal/logging"
)

//go:embed templates
var templateFS embed.FS

const genericTemplate = "generic"

// MessageContext is the data every message template renders from.
// Exactly one of the typed detail pointers is set, matching Plan.Detail.
type MessageContext struct {
	Plan      Plan
	Emotional EmotionalFacet
	Momentum  MomentumFacet
	Progress  ProgressFacet

	Support     *EmotionalSupportPlan
	Prospecting *ProspectingPlan
	Proposal    *ProposalPlan
	Demos       *DemosPlan
	Recovery    *MomentumPlan
	Reactivate  *ReactivationPlan
	Optimize    *OptimizationPlan

	Highlights []string // first diagnostic lines, for the generic template
	Actions    []string
}

// Crafter renders plans as chat messages.
type Crafter struct {
	templates map[string]*template.Template
}

// NewCrafter parses the embedded templates, keyed by "<style>/<plan type>".
func NewCrafter() (*Crafter, error) {
	c := &Crafter{templates: make(map[string]*template.Template)}
	err := fs.WalkDir(templateFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(p) != ".tmpl" {
			return err
		}
		t, err := template.New(path.Base(p)).Funcs(templateFuncs).ParseFS(templateFS, p)
		if err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		style := path.Base(path.Dir(p))
		c.templates[style+"/"+strings.TrimSuffix(path.Base(p), ".tmpl")] = t
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load message templates: %w", err)
	}
	return c, nil
}

// Craft picks the style for the user and renders the plan in it.
// Plans without a template for the style render as their main message.
func (c *Crafter) Craft(plan Plan, disc string, snap Snapshot) (Style, string) {
	style := SelectStyle(ParseDISC(disc), snap.Emotional, snap.Momentum)

	t := c.lookup(style, plan.Type)
	if t == nil {
		return style, plan.MensajePrincipal
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, newMessageContext(plan, snap)); err != nil {
		logging.WithFields(map[string]interface{}{
			"style": string(style),
			"plan":  string(plan.Type),
			"error": err.Error(),
		}).Warn("Message template failed, using main message")
		return style, plan.MensajePrincipal
	}
	return style, strings.TrimSpace(buf.String())
}

func (c *Crafter) lookup(style Style, lever LeverType) *template.Template {
	if t, ok := c.templates[string(style)+"/"+string(lever)]; ok {
		return t
	}
	if style == StyleBalanced {
		return c.templates[string(StyleBalanced)+"/"+genericTemplate]
	}
	return nil
}

func newMessageContext(plan Plan, snap Snapshot) MessageContext {
	mc := MessageContext{
		Plan:      plan,
		Emotional: snap.Emotional,
		Momentum:  snap.Momentum,
		Progress:  snap.Progress,
	}

	switch d := plan.Detail.(type) {
	case *EmotionalSupportPlan:
		mc.Support = d
		mc.Highlights = []string{
			"Estado: " + d.Diagnostico.Estado,
			fmt.Sprintf("Motivación: %s/10", num(d.Diagnostico.Motivacion)),
			"Posible causa: " + d.Diagnostico.PosibleCausa,
		}
		mc.Actions = quickWinActions(d.AccionInmediata.Opciones)
	case *ProspectingPlan:
		mc.Prospecting = d
		mc.Highlights = []string{
			fmt.Sprintf("Leads calientes: %d", d.Diagnostico.LeadsCalientes),
			fmt.Sprintf("Leads tibios: %d", d.Diagnostico.LeadsTibios),
			"Gap: " + money(d.Diagnostico.Gap),
		}
		mc.Actions = []string{
			fmt.Sprintf("• %d contactos hoy", d.Rescate.ObjetivoHoy),
			"• Canal: " + d.Rescate.Canal,
			"• Horario: " + d.Rescate.Horario,
		}
	case *ProposalPlan:
		mc.Proposal = d
		mc.Highlights = []string{
			fmt.Sprintf("Propuestas pendientes: %d", d.Diagnostico.PropuestasPendientes),
			"Valor pipeline: " + money(d.Diagnostico.ValorPipeline),
			"Conversión histórica: " + pct0(d.Diagnostico.ConversionRateHistorica),
		}
		mc.Actions = followUpActions(append(append([]FollowUp(nil), d.Urgentes...), d.Proximas...))
	case *DemosPlan:
		mc.Demos = d
		mc.Highlights = []string{
			fmt.Sprintf("Demos pendientes: %d", d.Diagnostico.DemosPendientes),
			fmt.Sprintf("Listas para propuesta: %d", d.Diagnostico.Listos),
			"Valor pipeline: " + money(d.Diagnostico.ValorPipeline),
		}
		mc.Actions = followUpActions(append(append([]FollowUp(nil), d.Listos...), d.Seguimiento...))
	case *MomentumPlan:
		mc.Recovery = d
		last := "sin cierres recientes"
		if d.Diagnostico.DiasDesdeUltimoCierre >= 0 {
			last = fmt.Sprintf("%d", d.Diagnostico.DiasDesdeUltimoCierre)
		}
		mc.Highlights = []string{
			"Vs mes anterior: " + pct0(d.Diagnostico.VsMesAnterior),
			fmt.Sprintf("Cierres del mes: %d", d.Diagnostico.CierresMes),
			"Días desde último cierre: " + last,
		}
		mc.Actions = quickWinActions(d.QuickWins)
	case *ReactivationPlan:
		mc.Reactivate = d
		mc.Highlights = []string{
			fmt.Sprintf("Leads fríos: %d", d.Diagnostico.LeadsFrios),
			fmt.Sprintf("Con historial: %d", d.Diagnostico.ConHistorial),
			"Conversión esperada: " + pct0(d.Diagnostico.ConversionEsperada),
		}
		mc.Actions = followUpActions(append(append([]FollowUp(nil), d.SweetSpot...), d.Recientes...))
	case *OptimizationPlan:
		mc.Optimize = d
		for _, p := range d.TopPatterns {
			mc.Highlights = append(mc.Highlights, p.Descripcion)
		}
		for _, m := range d.Roadmap {
			mc.Actions = append(mc.Actions, fmt.Sprintf("Mes %d: %s", m.Mes, m.Foco))
		}
	}
	return mc
}

func quickWinActions(wins []QuickWin) []string {
	out := make([]string, 0, len(wins))
	for i, w := range wins {
		out = append(out, fmt.Sprintf("%d. %s (%d min)", i+1, w.Accion, w.TiempoMin))
	}
	return out
}

func followUpActions(leads []FollowUp) []string {
	var out []string
	for i, l := range leads {
		if i == 3 {
			break
		}
		out = append(out, fmt.Sprintf("%d. %s - %s", i+1, l.Nombre, l.Accion))
	}
	return out
}

var printer = message.NewPrinter(language.AmericanEnglish)

var templateFuncs = template.FuncMap{
	"inc":      func(i int) int { return i + 1 },
	"pct0":     pct0,
	"pct1":     func(v any) string { return fmt.Sprintf("%.1f%%", toFloat(v)*100) },
	"money":    func(v any) string { return money(toFloat(v)) },
	"num":      func(v any) string { return num(toFloat(v)) },
	"floorMul": func(a, b any) int { return int(math.Floor(toFloat(a) * toFloat(b))) },
	"padRight": func(v any, n int) string { s := fmt.Sprint(v); return s + pad(s, n) },
	"padLeft":  func(v any, n int) string { s := fmt.Sprint(v); return pad(s, n) + s },
	"trunc":    truncate,
	"first":    func(n int, v []FollowUp) []FollowUp { return v[:min(n, len(v))] },
}

func pct0(v any) string {
	return fmt.Sprintf("%.0f%%", toFloat(v)*100)
}

// money formats whole currency units with thousands separators: $10,000.
func money(v float64) string {
	return printer.Sprintf("$%d", int64(math.Round(v)))
}

func pad(s string, n int) string {
	if w := utf8.RuneCountInString(s); w < n {
		return strings.Repeat(" ", n-w)
	}
	return ""
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
