package coach

import (
	"fmt"
	"math"
	"strconv"
)

// LeverType identifies the single highest-impact action area.
type LeverType string

const (
	LeverEmotionalSupport   LeverType = "emotional_support"
	LeverPipelineEmergency  LeverType = "pipeline_emergency"
	LeverProspectingSprint  LeverType = "prospecting_sprint"
	LeverCloseExistingDemos LeverType = "close_existing_demos"
	LeverProposalFollowUp   LeverType = "proposal_follow_up"
	LeverMomentumRecovery   LeverType = "momentum_recovery"
	LeverLeadReactivation   LeverType = "lead_reactivation"
	LeverOptimization       LeverType = "optimization"
	LeverMaintain           LeverType = "maintain"
)

// AllLevers lists every lever in classification priority order.
var AllLevers = []LeverType{
	LeverEmotionalSupport,
	LeverPipelineEmergency,
	LeverProspectingSprint,
	LeverCloseExistingDemos,
	LeverProposalFollowUp,
	LeverMomentumRecovery,
	LeverLeadReactivation,
	LeverOptimization,
	LeverMaintain,
}

// Urgency ranks how soon the lever must be acted on
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
)

// ActionCode is the machine-readable action of a lever. Clients branch on it.
type ActionCode string

const (
	ActionRestoreConfidence  ActionCode = "restore_confidence"
	ActionMassiveProspecting ActionCode = "massive_prospecting"
	ActionMassiveOutreach    ActionCode = "massive_outreach"
	ActionDemoPush           ActionCode = "demo_push"
	ActionAggressiveFollowUp ActionCode = "aggressive_follow_up"
	ActionQuickWins          ActionCode = "quick_wins"
	ActionWarmUpColdLeads    ActionCode = "warm_up_cold_leads"
	ActionScaleWhatWorks     ActionCode = "scale_what_works"
	ActionContinueRhythm     ActionCode = "continue_rhythm"
)

// DefaultDealValue is the revenue assumed per closed deal.
const DefaultDealValue = 700.0

const urgentGapFraction = 0.3

// Lever is the classifier's verdict.
type Lever struct {
	Type             LeverType  `json:"type"`
	Urgency          Urgency    `json:"urgency"`
	Action           ActionCode `json:"action"`
	Reasoning        string     `json:"reasoning"`
	ImpactoEstimado  string     `json:"impacto_estimado"`
	TiempoResolucion string     `json:"tiempo_resolucion,omitempty"`
	MetaInmediata    string     `json:"meta_inmediata,omitempty"`
}

// Funnel is the backwards math from a revenue gap to the activity that covers it.
type Funnel struct {
	Cierres   int `json:"cierres"`
	Demos     int `json:"demos"`
	Contactos int `json:"contactos"`
}

// FunnelFor computes closes, demos and contacts needed to cover gap.
// Demos scale from the rounded number of closes.
func FunnelFor(gap, dealValue float64) Funnel {
	if gap <= 0 {
		return Funnel{}
	}
	if dealValue <= 0 {
		dealValue = DefaultDealValue
	}
	cierres := int(math.Ceil(gap / dealValue))
	return Funnel{
		Cierres:   cierres,
		Demos:     int(math.Ceil(float64(cierres) * 2.5)),
		Contactos: int(math.Ceil(gap / dealValue * 6)),
	}
}

// Classify picks the critical lever with the default deal value.
func Classify(s Snapshot) Lever {
	return ClassifyWithDealValue(s, DefaultDealValue)
}

// ClassifyWithDealValue applies the rules in strict priority order; the first match wins.
// It is total: every snapshot yields exactly one lever.
func ClassifyWithDealValue(s Snapshot, dealValue float64) Lever {
	emo, prog, pipe, mom := s.Emotional, s.Progress, s.Pipeline, s.Momentum

	if emo.Motivacion < 4 || emo.Estres > 7 {
		return Lever{
			Type:             LeverEmotionalSupport,
			Urgency:          UrgencyCritical,
			Action:           ActionRestoreConfidence,
			Reasoning:        fmt.Sprintf("Motivación %s/10, estrés %s/10. Sin energía, ninguna táctica funciona.", num(emo.Motivacion), num(emo.Estres)),
			ImpactoEstimado:  "Recuperar capacidad de ejecución",
			TiempoResolucion: "1-2 días",
		}
	}

	if pipe.DiasSinProspeccion > 7 || (pipe.Calientes < 3 && pipe.Tibios < 5) {
		return Lever{
			Type:    LeverPipelineEmergency,
			Urgency: UrgencyHigh,
			Action:  ActionMassiveProspecting,
			Reasoning: fmt.Sprintf("Pipeline crítico: %d días sin prospectar, solo %d leads calientes. Pipeline se agota en ~14 días.",
				pipe.DiasSinProspeccion, pipe.Calientes),
			ImpactoEstimado:  "Evitar mes de $0 en 2-3 semanas",
			TiempoResolucion: "1 semana",
			MetaInmediata:    "15 contactos/día por 5 días",
		}
	}

	if prog.Urgencia && gapFractionReached(prog.Gap, prog.Objetivo) {
		f := FunnelFor(prog.Gap, dealValue)
		switch {
		case pipe.Bottleneck == BottleneckProspection:
			dias := max(prog.DiasRestantes, 1)
			return Lever{
				Type:    LeverProspectingSprint,
				Urgency: UrgencyHigh,
				Action:  ActionMassiveOutreach,
				Reasoning: fmt.Sprintf("Gap de $%.0f (%.0f%%) con %d días restantes. Bottleneck: prospección. Necesitás %d cierres = %d demos = %d contactos.",
					prog.Gap, prog.Gap/prog.Objetivo*100, prog.DiasRestantes, f.Cierres, f.Demos, f.Contactos),
				ImpactoEstimado: fmt.Sprintf("Cubrir gap de $%.0f", prog.Gap),
				MetaInmediata:   fmt.Sprintf("%d contactos/día", int(math.Ceil(float64(f.Contactos)/float64(dias)))),
			}
		case pipe.Bottleneck == BottleneckConversionDemo && pipe.DemosPendientes > 3:
			return Lever{
				Type:    LeverCloseExistingDemos,
				Urgency: UrgencyHigh,
				Action:  ActionDemoPush,
				Reasoning: fmt.Sprintf("%d demos sin avanzar y gap de $%.0f. Necesitás %d cierres: convertir demos es más rápido que prospectar.",
					pipe.DemosPendientes, prog.Gap, f.Cierres),
				ImpactoEstimado:  fmt.Sprintf("Hasta $%.0f en pipeline", float64(pipe.DemosPendientes)*dealValue),
				TiempoResolucion: "3-5 días",
			}
		case pipe.Bottleneck == BottleneckClose && pipe.PropuestasPendientes > 3:
			return Lever{
				Type:    LeverProposalFollowUp,
				Urgency: UrgencyHigh,
				Action:  ActionAggressiveFollowUp,
				Reasoning: fmt.Sprintf("%d propuestas pendientes y gap de $%.0f. Cerrar lo que ya está en la mesa cubre %d cierres sin prospectar.",
					pipe.PropuestasPendientes, prog.Gap, f.Cierres),
				ImpactoEstimado:  fmt.Sprintf("$%.0f en propuestas abiertas", float64(pipe.PropuestasPendientes)*dealValue),
				TiempoResolucion: "2-3 días",
			}
		}
	}

	if mom.Tendencia == TrendDeclining && mom.VsMesAnterior < -0.2 {
		return Lever{
			Type:    LeverMomentumRecovery,
			Urgency: UrgencyMedium,
			Action:  ActionQuickWins,
			Reasoning: fmt.Sprintf("Momentum -%.0f%% vs mes anterior. Generar quick wins para recuperar confianza y ritmo.",
				math.Abs(mom.VsMesAnterior*100)),
			ImpactoEstimado:  "Recuperar ritmo de cierres",
			TiempoResolucion: "3-5 días",
		}
	}

	if pipe.Frios > 20 && pipe.Calientes < 5 {
		return Lever{
			Type:             LeverLeadReactivation,
			Urgency:          UrgencyMedium,
			Action:           ActionWarmUpColdLeads,
			Reasoning:        fmt.Sprintf("%d leads fríos y solo %d calientes. Reactivar es más barato que prospectar desde cero.", pipe.Frios, pipe.Calientes),
			ImpactoEstimado:  fmt.Sprintf("~%d leads recuperados", int(math.Round(float64(pipe.Frios)*0.15))),
			TiempoResolucion: "1 semana",
		}
	}

	if prog.Realista && emo.Motivacion > 6 && pipe.Salud > 0.7 {
		return Lever{
			Type:             LeverOptimization,
			Urgency:          UrgencyLow,
			Action:           ActionScaleWhatWorks,
			Reasoning:        fmt.Sprintf("Proyección realista, motivación %s/10 y salud de pipeline %.2f. Momento de optimizar.", num(emo.Motivacion), pipe.Salud),
			ImpactoEstimado:  "Subir conversión y ticket promedio",
			TiempoResolucion: "continuo",
		}
	}

	return Lever{
		Type:            LeverMaintain,
		Urgency:         UrgencyLow,
		Action:          ActionContinueRhythm,
		Reasoning:       "Sin alertas: emociones, pipeline y progreso dentro de rango.",
		ImpactoEstimado: "Sostener resultados",
	}
}

// num formats a score without trailing zeros: 3, 3.5.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
