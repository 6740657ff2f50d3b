package coach

import (
	"fmt"
	"math"
	"time"

	"github.com/salescoach/salescoach/internal/core"
)

const (
	emergencyMinDaily = 15
	emergencyDays     = 5
	maxCalendarDays   = 14
	responseRate      = 0.3
	demoRate          = 0.15
	defaultSpeech     = "Hola [nombre], vi que [empresa] está [situación]. Ayudamos a empresas similares a [resultado]. ¿Te sirve una charla de 15 min?"
)

// ProspectingPlan is the contact quota plan used by both the pipeline
// emergency and the prospecting sprint.
type ProspectingPlan struct {
	Diagnostico PipelineDiagnosis `json:"diagnostico"`
	Rescate     RescuePlan        `json:"plan_rescate"`
	Calendario  []CalendarDay     `json:"calendario"`
	Motivacion  string            `json:"motivacion"`
}

func (ProspectingPlan) planDetail() {}

// PipelineDiagnosis explains why prospecting is the lever
type PipelineDiagnosis struct {
	LeadsCalientes     int     `json:"leads_calientes"`
	LeadsTibios        int     `json:"leads_tibios"`
	DiasHastaSecar     int     `json:"dias_hasta_secar"`
	DiasSinProspeccion int     `json:"dias_sin_prospeccion"`
	Gap                float64 `json:"gap"`
	Urgencia           string  `json:"urgencia"`
}

// RescuePlan holds the quotas and the best known way to hit them.
type RescuePlan struct {
	ObjetivoHoy        int           `json:"objetivo_hoy"`
	ObjetivoSemana     int           `json:"objetivo_semana"`
	Canal              string        `json:"canal"`
	Horario            string        `json:"horario"`
	DiaOptimo          string        `json:"dia_optimo"`
	SpeechValidado     string        `json:"speech_validado"`
	ConversionEsperada float64       `json:"conversion_esperada"`
	ListaPriorizada    PriorityList  `json:"lista_priorizada"`
	Embudo             InverseFunnel `json:"embudo"`
	Razon              string        `json:"razon"`
}

// PriorityList describes the lead list to work through
type PriorityList struct {
	Descripcion string   `json:"descripcion"`
	Filtros     []string `json:"filtros"`
}

// InverseFunnel walks back from closes to contacts
type InverseFunnel struct {
	Contactos  int `json:"contactos"`
	Respuestas int `json:"respuestas"`
	Demos      int `json:"demos"`
	Cierres    int `json:"cierres"`
}

// CalendarDay is one day of the outreach calendar
type CalendarDay struct {
	Dia       int    `json:"dia"`
	Fecha     string `json:"fecha"`
	DiaSemana string `json:"dia_semana"`
	Contactos int    `json:"contactos"`
}

func (g *Generator) inverseFunnel(gap float64) InverseFunnel {
	if gap <= 0 {
		return InverseFunnel{}
	}
	contactos := int(math.Ceil(gap / g.dealValue * 6))
	return InverseFunnel{
		Contactos:  contactos,
		Respuestas: int(math.Ceil(float64(contactos) * responseRate)),
		Demos:      int(math.Ceil(float64(contactos) * demoRate)),
		Cierres:    int(math.Ceil(gap / g.dealValue)),
	}
}

func (g *Generator) pipelineEmergency(r *planRun) Plan {
	pipe := r.snap.Pipeline
	dias := max(r.snap.Progress.DiasRestantes, 1)

	funnel := g.inverseFunnel(r.snap.Progress.Gap)
	daily := max(ceilDiv(funnel.Contactos, dias), emergencyMinDaily)
	rescue := g.rescuePlan(r, funnel, daily, emergencyDays)

	horario := rescue.Horario
	return Plan{
		Type: LeverPipelineEmergency,
		MensajePrincipal: fmt.Sprintf("🚨 %s, pipeline crítico. %d días sin prospectar = crisis en 2 semanas.",
			firstName(r.profile), pipe.DiasSinProspeccion),
		Confidence: 0.85,
		Detail: &ProspectingPlan{
			Diagnostico: PipelineDiagnosis{
				LeadsCalientes:     pipe.Calientes,
				LeadsTibios:        pipe.Tibios,
				DiasHastaSecar:     int(math.Ceil((float64(pipe.Calientes) + float64(pipe.Tibios)*0.5) / 3)),
				DiasSinProspeccion: pipe.DiasSinProspeccion,
				Gap:                r.snap.Progress.Gap,
				Urgencia:           "ALTA",
			},
			Rescate:    rescue,
			Calendario: calendar(r.now, emergencyDays, daily),
			Motivacion: fmt.Sprintf("Sé que son muchos. Pero tu data dice: %s %s con ese speech convertís %.0f%%. Bloqueá 1h, ponemos timer, hacemos batch.",
				rescue.DiaOptimo, horario, rescue.ConversionEsperada*100),
		},
	}
}

func (g *Generator) prospectingSprint(r *planRun) Plan {
	prog := r.snap.Progress
	dias := max(prog.DiasRestantes, 1)

	funnel := g.inverseFunnel(prog.Gap)
	daily := ceilDiv(funnel.Contactos, dias)
	days := min(dias, maxCalendarDays)
	rescue := g.rescuePlan(r, funnel, daily, days)

	confidence := 0.6
	if prog.DiasRestantes >= 7 {
		confidence = 0.75
	}

	return Plan{
		Type: LeverProspectingSprint,
		MensajePrincipal: fmt.Sprintf("%s, faltan $%.0f en %d días. Sprint de %d contactos/día por %s.",
			firstName(r.profile), prog.Gap, prog.DiasRestantes, daily, rescue.Canal),
		Confidence: confidence,
		Detail: &ProspectingPlan{
			Diagnostico: PipelineDiagnosis{
				LeadsCalientes:     r.snap.Pipeline.Calientes,
				LeadsTibios:        r.snap.Pipeline.Tibios,
				DiasSinProspeccion: r.snap.Pipeline.DiasSinProspeccion,
				Gap:                prog.Gap,
				Urgencia:           "MEDIA",
			},
			Rescate:    rescue,
			Calendario: calendar(r.now, days, daily),
			Motivacion: fmt.Sprintf("%d cierres separan el mes de tu objetivo. Cada bloque de contactos acerca uno.", funnel.Cierres),
		},
	}
}

func (g *Generator) rescuePlan(r *planRun, funnel InverseFunnel, daily, days int) RescuePlan {
	horario, learned := r.ww.BestHorario()
	if !learned && r.snap.Timing.MejorMomentoHoy != "" {
		horario = r.snap.Timing.MejorMomentoHoy
	}
	speech, ok := r.ww.BestSpeech()
	if !ok {
		speech = defaultSpeech
	}
	canal := r.ww.BestCanal()
	icp := r.profile.ICPPrincipal
	if icp == "" {
		icp = "ICP principal"
	}

	return RescuePlan{
		ObjetivoHoy:        daily,
		ObjetivoSemana:     daily * min(days, emergencyDays),
		Canal:              canal,
		Horario:            horario,
		DiaOptimo:          r.ww.BestDia(),
		SpeechValidado:     speech,
		ConversionEsperada: r.ww.CanalRate(),
		ListaPriorizada: PriorityList{
			Descripcion: fmt.Sprintf("Generaremos lista de %d contactos priorizados", daily),
			Filtros:     []string{icp, "activos en " + canal, "sin contacto previo"},
		},
		Embudo: funnel,
		Razon: fmt.Sprintf("Necesitás ~%d cierres para objetivo. Backwards: %d contactos → %d respuestas → %d demos → %d cierres.",
			funnel.Cierres, funnel.Contactos, funnel.Respuestas, funnel.Demos, funnel.Cierres),
	}
}

// calendar lays out n consecutive days starting today
func calendar(now time.Time, n, daily int) []CalendarDay {
	n = min(max(n, 1), maxCalendarDays)
	out := make([]CalendarDay, 0, n)
	for i := 0; i < n; i++ {
		day := now.AddDate(0, 0, i)
		out = append(out, CalendarDay{
			Dia:       i + 1,
			Fecha:     day.Format("2006-01-02"),
			DiaSemana: core.WeekdayName(day.Weekday()),
			Contactos: daily,
		})
	}
	return out
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return int(math.Ceil(float64(a) / float64(b)))
}
