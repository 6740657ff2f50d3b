package coach

import (
	"fmt"
	"math"

	"github.com/salescoach/salescoach/internal/core"
)

// ProposalPlan chases open proposals in the day 3-9 window.
type ProposalPlan struct {
	Diagnostico ProposalDiagnosis `json:"diagnostico"`
	Urgentes    []FollowUp        `json:"urgentes"`
	Proximas    []FollowUp        `json:"proximas"`
	Insights    ClosingInsights   `json:"insights"`
}

func (ProposalPlan) planDetail() {}

// ProposalDiagnosis sizes the open proposals
type ProposalDiagnosis struct {
	PropuestasPendientes    int     `json:"propuestas_pendientes"`
	ValorPipeline           float64 `json:"valor_pipeline"`
	ConversionRateHistorica float64 `json:"conversion_rate_historica"`
	ValorEsperado           float64 `json:"valor_esperado"`
}

// FollowUp is one lead to contact with its script
type FollowUp struct {
	ContactID   string  `json:"contact_id"`
	Nombre      string  `json:"nombre"`
	Empresa     string  `json:"empresa"`
	DiasDesde   int     `json:"dias_desde"`
	Temperatura int     `json:"temperatura"`
	Valor       float64 `json:"valor"`
	Accion      string  `json:"accion"`
	Script      string  `json:"script"`
}

// ClosingInsights are the fixed closing tips
type ClosingInsights struct {
	MomentoCritico    string   `json:"momento_critico"`
	Approach          string   `json:"approach"`
	ObjecionesComunes []string `json:"objeciones_comunes"`
	ComoManejar       string   `json:"como_manejar"`
}

var closingInsights = ClosingInsights{
	MomentoCritico:    "Día 7 post-propuesta: 65% conversión vs 30% si esperás más",
	Approach:          `Consultivo, no vendedor. "¿Cómo viene el tema? ¿Qué necesitás para decidir?"`,
	ObjecionesComunes: []string{"presupuesto", "timing", "necesita aprobación"},
	ComoManejar:       `Ser directo: "Entiendo. ¿Es un no definitivo o un no por ahora?"`,
}

// openInStage lists the open contacts of a stage. ok is false when the read failed.
func (g *Generator) openInStage(r *planRun, stage core.Stage) (contacts []core.Contact, ok bool) {
	contacts, err := g.store.ListContacts(r.ctx, r.userID, core.ContactFilter{
		Stage:           stage,
		ExcludeArchived: true,
		OrderBy:         core.OrderByTemperature,
	})
	if err != nil {
		r.degrade("contacts_"+string(stage), err)
		return nil, false
	}
	return contacts, true
}

func (g *Generator) dealValueOf(c core.Contact) float64 {
	if c.ValorEstimado > 0 {
		return c.ValorEstimado
	}
	return g.dealValue
}

func (g *Generator) proposalFollowUp(r *planRun) Plan {
	proposals, ok := g.openInStage(r, core.StagePropuesta)
	rate := r.ww.FollowUpRate()

	var urgentes, proximas []FollowUp
	for _, c := range proposals {
		dias := daysBetween(c.StageFechaEntrada, r.now)
		f := FollowUp{
			ContactID:   c.ID,
			Nombre:      c.Nombre,
			Empresa:     c.Empresa,
			DiasDesde:   dias,
			Temperatura: c.Temperatura,
			Valor:       g.dealValueOf(c),
		}
		switch {
		case dias >= 5 && dias <= 9:
			f.Accion = "Llamar HOY"
			f.Script = fmt.Sprintf("Che %s, ¿cómo viene el tema %s? Ya pasaron %d días de la propuesta. ¿Qué necesitás para decidir?",
				c.Nombre, c.Empresa, dias)
			urgentes = append(urgentes, f)
		case dias >= 3 && dias <= 4:
			f.Accion = "Agendar mañana"
			f.Script = fmt.Sprintf("Hola %s, paso a chequear cómo viene la propuesta para %s. ¿Tuviste chance de revisarla? ¿Alguna duda?",
				c.Nombre, c.Empresa)
			proximas = append(proximas, f)
		}
	}

	n := len(proposals)
	if !ok {
		n = r.snap.Pipeline.PropuestasPendientes
	}
	valorPipeline := float64(n) * g.dealValue
	return Plan{
		Type:             LeverProposalFollowUp,
		MensajePrincipal: fmt.Sprintf("%s, tenés %d propuestas sin cerrar. Día 5-7 post-propuesta es crítico.", firstName(r.profile), n),
		Confidence:       0.9,
		Detail: &ProposalPlan{
			Diagnostico: ProposalDiagnosis{
				PropuestasPendientes:    n,
				ValorPipeline:           valorPipeline,
				ConversionRateHistorica: rate,
				ValorEsperado:           math.Round(valorPipeline * rate),
			},
			Urgentes: urgentes,
			Proximas: proximas,
			Insights: closingInsights,
		},
	}
}

// DemosPlan moves finished demos to proposals.
type DemosPlan struct {
	Diagnostico DemosDiagnosis `json:"diagnostico"`
	Listos      []FollowUp     `json:"listos"`
	Seguimiento []FollowUp     `json:"seguimiento"`
	Recientes   []FollowUp     `json:"recientes"`
}

func (DemosPlan) planDetail() {}

// DemosDiagnosis sizes the open demos
type DemosDiagnosis struct {
	DemosPendientes int     `json:"demos_pendientes"`
	ValorPipeline   float64 `json:"valor_pipeline"`
	Listos          int     `json:"listos"`
	Seguimiento     int     `json:"seguimiento"`
	Recientes       int     `json:"recientes"`
}

func (g *Generator) closeDemos(r *planRun) Plan {
	demos, ok := g.openInStage(r, core.StageDemo)
	n := len(demos)
	if !ok {
		n = r.snap.Pipeline.DemosPendientes
	}

	detail := &DemosPlan{}
	for _, c := range demos {
		dias := daysBetween(c.StageFechaEntrada, r.now)
		f := FollowUp{
			ContactID:   c.ID,
			Nombre:      c.Nombre,
			Empresa:     c.Empresa,
			DiasDesde:   dias,
			Temperatura: c.Temperatura,
			Valor:       g.dealValueOf(c),
		}
		switch {
		case dias >= 3 && c.IsHot():
			f.Accion = "Enviar propuesta HOY"
			f.Script = fmt.Sprintf("Hola %s, ¿cómo quedaron después de la demo? Tengo la propuesta lista para %s. ¿La revisamos mañana 15 min?",
				c.Nombre, c.Empresa)
			detail.Listos = append(detail.Listos, f)
		case dias >= 3:
			f.Accion = "Follow-up de valor"
			f.Script = fmt.Sprintf("Hola %s, ¿pudiste compartir la demo con tu equipo en %s? ¿Qué dudas quedaron para avanzar?",
				c.Nombre, c.Empresa)
			detail.Seguimiento = append(detail.Seguimiento, f)
		default:
			f.Accion = "Enviar resumen"
			f.Script = fmt.Sprintf("Hola %s, gracias por el tiempo en la demo. Te paso el resumen y los próximos pasos para %s.",
				c.Nombre, c.Empresa)
			detail.Recientes = append(detail.Recientes, f)
		}
	}

	detail.Diagnostico = DemosDiagnosis{
		DemosPendientes: n,
		ValorPipeline:   float64(n) * g.dealValue,
		Listos:          len(detail.Listos),
		Seguimiento:     len(detail.Seguimiento),
		Recientes:       len(detail.Recientes),
	}

	return Plan{
		Type: LeverCloseExistingDemos,
		MensajePrincipal: fmt.Sprintf("%s, tenés %d demos esperando el próximo paso. %d listas para propuesta hoy.",
			firstName(r.profile), n, len(detail.Listos)),
		Confidence: 0.8,
		Detail:     detail,
	}
}
