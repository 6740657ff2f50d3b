package coach

import (
	"fmt"
	"math"

	"github.com/salescoach/salescoach/internal/core"
)

const (
	closesLookbackDays   = 60
	reactivationBucket   = 10
	reactivationRate     = 0.15
	coldTemperatureBelow = core.WarmThreshold
)

// MomentumPlan rebuilds confidence with three quick wins.
type MomentumPlan struct {
	Diagnostico MomentumDiagnosis `json:"diagnostico"`
	QuickWins   []QuickWin        `json:"quick_wins"`
}

func (MomentumPlan) planDetail() {}

// MomentumDiagnosis compares this month against the last
type MomentumDiagnosis struct {
	VsMesAnterior         float64 `json:"vs_mes_anterior"`
	CierresMes            int     `json:"cierres_mes"`
	DiasDesdeUltimoCierre int     `json:"dias_desde_ultimo_cierre"` // -1 when there is none
	RachaActual           int     `json:"racha_actual"`
}

var momentumQuickWins = []QuickWin{
	{
		Rank:         1,
		Accion:       "Cerrá el lead más caliente",
		TiempoMin:    20,
		Probabilidad: 0.7,
		Speech:       "Che [nombre], ¿lo dejamos arrancado esta semana? Te puedo mandar el acuerdo hoy.",
	},
	{
		Rank:         2,
		Accion:       "Pedí un testimonio",
		TiempoMin:    10,
		Probabilidad: 0.9,
		Speech:       "Che [cliente], ¿me contarías en 2-3 líneas qué cambió desde que trabajamos juntos?",
	},
	{
		Rank:         3,
		Accion:       "Reactivá un lead tibio",
		TiempoMin:    15,
		Probabilidad: 0.5,
		Speech:       "Hola [nombre], me acordé de vos porque [novedad relevante]. ¿Seguís con el tema [problema]?",
	},
}

func (g *Generator) momentumRecovery(r *planRun) Plan {
	mom := r.snap.Momentum

	lastClose := -1
	closes, err := g.store.RecentCloses(r.ctx, r.userID, r.now.AddDate(0, 0, -closesLookbackDays))
	if err != nil {
		r.degrade("recent_closes", err)
	}
	if len(closes) > 0 {
		lastClose = daysBetween(closes[0].Fecha, r.now)
	}

	return Plan{
		Type: LeverMomentumRecovery,
		MensajePrincipal: fmt.Sprintf("%s, el momentum bajó %.0f%% vs el mes pasado. Vamos por 3 quick wins para recuperar ritmo.",
			firstName(r.profile), math.Abs(mom.VsMesAnterior*100)),
		Confidence: 0.7,
		Detail: &MomentumPlan{
			Diagnostico: MomentumDiagnosis{
				VsMesAnterior:         mom.VsMesAnterior,
				CierresMes:            mom.CierresMes,
				DiasDesdeUltimoCierre: lastClose,
				RachaActual:           mom.RachaActual,
			},
			QuickWins: append([]QuickWin(nil), momentumQuickWins...),
		},
	}
}

// ReactivationPlan works the cold part of the pipeline.
type ReactivationPlan struct {
	Diagnostico  ReactivationDiagnosis `json:"diagnostico"`
	Recientes    []FollowUp            `json:"recientes"`
	SweetSpot    []FollowUp            `json:"sweet_spot"`
	Stale        []FollowUp            `json:"stale"`
	SinHistorial []FollowUp            `json:"sin_historial"`
}

func (ReactivationPlan) planDetail() {}

// ReactivationDiagnosis counts cold leads
type ReactivationDiagnosis struct {
	LeadsFrios         int     `json:"leads_frios"`
	ConHistorial       int     `json:"con_historial"`
	SinHistorial       int     `json:"sin_historial"`
	ConversionEsperada float64 `json:"conversion_esperada"`
}

func (g *Generator) leadReactivation(r *planRun) Plan {
	below := coldTemperatureBelow
	cold, err := g.store.ListContacts(r.ctx, r.userID, core.ContactFilter{
		MaxTemperature:  &below,
		ExcludeArchived: true,
		OrderBy:         core.OrderByLastInteraction,
	})
	if err != nil {
		r.degrade("cold_leads", err)
	}

	detail := &ReactivationPlan{}
	withHistory := 0
	for _, c := range cold {
		f := FollowUp{
			ContactID:   c.ID,
			Nombre:      c.Nombre,
			Empresa:     c.Empresa,
			Temperatura: c.Temperatura,
			Valor:       g.dealValueOf(c),
		}
		if c.UltimaInteraccion == nil {
			f.DiasDesde = -1
			f.Accion = "Primer contacto"
			f.Script = fmt.Sprintf("Hola %s, vi lo que están haciendo en %s y creo que [resultado concreto] les puede servir. ¿15 min esta semana?",
				c.Nombre, c.Empresa)
			detail.SinHistorial = appendCapped(detail.SinHistorial, f)
			continue
		}

		withHistory++
		f.DiasDesde = daysBetween(*c.UltimaInteraccion, r.now)
		switch {
		case f.DiasDesde < 30:
			f.Accion = "Retomar la conversación"
			f.Script = fmt.Sprintf("Hola %s, sigo pensando en lo que charlamos. Armé un ejemplo concreto para %s. ¿Te lo paso?",
				c.Nombre, c.Empresa)
			detail.Recientes = appendCapped(detail.Recientes, f)
		case f.DiasDesde <= 90:
			f.Accion = "Reactivar con caso de éxito"
			f.Script = fmt.Sprintf("Hola %s, hace un tiempo hablamos sobre %s. Desde entonces ayudamos a empresas similares a [resultado]. ¿Vale la pena retomar?",
				c.Nombre, c.Empresa)
			detail.SweetSpot = appendCapped(detail.SweetSpot, f)
		default:
			f.Accion = "Reabrir desde cero"
			f.Script = fmt.Sprintf("Hola %s, ¡tanto tiempo! Cambiaron muchas cosas de nuestro lado. ¿Cómo viene %s este año?",
				c.Nombre, c.Empresa)
			detail.Stale = appendCapped(detail.Stale, f)
		}
	}

	detail.Diagnostico = ReactivationDiagnosis{
		LeadsFrios:         len(cold),
		ConHistorial:       withHistory,
		SinHistorial:       len(cold) - withHistory,
		ConversionEsperada: reactivationRate,
	}

	confidence := 0.6
	if withHistory >= 5 {
		confidence = 0.7
	}

	return Plan{
		Type: LeverLeadReactivation,
		MensajePrincipal: fmt.Sprintf("%s, tenés %d leads fríos. Los que ya te conocen son los más fáciles de reactivar.",
			firstName(r.profile), len(cold)),
		Confidence: confidence,
		Detail:     detail,
	}
}

func appendCapped(list []FollowUp, f FollowUp) []FollowUp {
	if len(list) >= reactivationBucket {
		return list
	}
	return append(list, f)
}
