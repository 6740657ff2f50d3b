package coach

import (
	"time"

	"github.com/salescoach/salescoach/internal/core"
	"github.com/salescoach/salescoach/internal/learning"
)

// Trend describes the direction of a series
type Trend string

const (
	TrendImproving    Trend = "mejorando"
	TrendAccelerating Trend = "acelerando"
	TrendStable       Trend = "estable"
	TrendDeclining    Trend = "declinando"
	TrendStarting     Trend = "iniciando"
)

// Bottleneck is the pipeline stage where leads pile up
type Bottleneck string

const (
	BottleneckProspection    Bottleneck = "prospection"
	BottleneckConversionDemo Bottleneck = "conversion_demo"
	BottleneckClose          Bottleneck = "close"
	BottleneckNone           Bottleneck = "none"
)

// Emotional defaults used when the user has no recent check-in
const (
	defaultSentimiento = "neutral"
	defaultEnergia     = 7
	defaultMotivacion  = 7
	defaultEstres      = 5
	defaultConfianza   = 7
)

// Snapshot is the normalized situation the classifier decides on.
type Snapshot struct {
	Emotional EmotionalFacet `json:"emotional"`
	Progress  ProgressFacet  `json:"progress"`
	Pipeline  PipelineFacet  `json:"pipeline"`
	Momentum  MomentumFacet  `json:"momentum"`
	Timing    TimingFacet    `json:"timing"`
}

// EmotionalFacet summarizes the latest check-in and its trend
type EmotionalFacet struct {
	Estado     string  `json:"estado"`
	Energia    float64 `json:"energia"`
	Motivacion float64 `json:"motivacion"`
	Estres     float64 `json:"estres"`
	Confianza  float64 `json:"confianza"`
	Tendencia  Trend   `json:"tendencia"`
	Alerta     bool    `json:"alerta"`
}

// ProgressFacet compares revenue against the monthly goal
type ProgressFacet struct {
	Porcentaje         float64 `json:"porcentaje"`
	Proyeccion         float64 `json:"proyeccion"`
	Gap                float64 `json:"gap"`
	VelocidadActual    float64 `json:"velocidad_actual"`
	VelocidadNecesaria float64 `json:"velocidad_necesaria"`
	Objetivo           float64 `json:"objetivo"`
	Actual             float64 `json:"actual"`
	DiasRestantes      int     `json:"dias_restantes"`
	Realista           bool    `json:"realista"`
	Urgencia           bool    `json:"urgencia"`
}

// PipelineFacet segments live contacts by temperature and stage.
// Calientes+Tibios+Frios always equals Total.
type PipelineFacet struct {
	Calientes            int        `json:"calientes"`
	Tibios               int        `json:"tibios"`
	Frios                int        `json:"frios"`
	Total                int        `json:"total"`
	Salud                float64    `json:"salud"`
	Bottleneck           Bottleneck `json:"bottleneck"`
	DiasSinProspeccion   int        `json:"dias_sin_prospeccion"`
	PropuestasPendientes int        `json:"propuestas_pendientes"`
	DemosPendientes      int        `json:"demos_pendientes"`
}

// MomentumFacet tracks closes and the recent outcome trend
type MomentumFacet struct {
	Estado        string  `json:"estado"`
	RachaActual   int     `json:"racha_actual"`
	MejorRacha    int     `json:"mejor_racha"`
	CierresMes    int     `json:"cierres_mes"`
	VsMesAnterior float64 `json:"vs_mes_anterior"`
	Tendencia     Trend   `json:"tendencia"`
}

// TimingFacet describes the moment the decision is made
type TimingFacet struct {
	Hora            int    `json:"hora"`
	DiaSemana       string `json:"dia_semana"`
	EnergiaAhora    string `json:"energia_ahora"`
	MejorMomentoHoy string `json:"mejor_momento_hoy,omitempty"`
	MomentoOptimo   bool   `json:"momento_optimo"`
}

// Inputs are the records a snapshot is built from.
type Inputs struct {
	Profile      *core.Profile
	Goals        []core.Goal           // active
	Contacts     []core.Contact        // non archived, hottest first
	Interactions []core.Interaction    // last 30 days, newest first
	Emotional    []core.EmotionalState // last 7 days, newest first
	Context      *core.CurrentContext
	WhatWorks    learning.WhatWorks
}

// BuildSnapshot derives the situation from the inputs. It does no I/O.
func BuildSnapshot(in Inputs, now time.Time) Snapshot {
	cc := core.CurrentContext{}
	if in.Context != nil {
		cc = *in.Context
	}

	profile := core.Profile{}
	if in.Profile != nil {
		profile = *in.Profile
	}

	return Snapshot{
		Emotional: emotionalFacet(in.Emotional),
		Progress:  progressFacet(in.Goals, cc, now),
		Pipeline:  pipelineFacet(in.Contacts, cc),
		Momentum:  momentumFacet(in.Interactions, cc),
		Timing:    timingFacet(profile, in.WhatWorks, now),
	}
}

func emotionalFacet(history []core.EmotionalState) EmotionalFacet {
	if len(history) == 0 {
		return EmotionalFacet{
			Estado:     defaultSentimiento,
			Energia:    defaultEnergia,
			Motivacion: defaultMotivacion,
			Estres:     defaultEstres,
			Confianza:  defaultConfianza,
			Tendencia:  TrendStable,
		}
	}

	latest := history[0]
	return EmotionalFacet{
		Estado:     latest.Sentimiento,
		Energia:    latest.Energia,
		Motivacion: latest.Motivacion,
		Estres:     latest.Estres,
		Confianza:  latest.Confianza,
		Tendencia:  emotionalTrend(history),
		Alerta:     latest.Motivacion < 4 || latest.Estres > 7,
	}
}

// emotionalTrend compares mean motivation of the 3 newest check-ins with the next 3.
func emotionalTrend(history []core.EmotionalState) Trend {
	if len(history) < 3 {
		return TrendStable
	}
	older := history[3:min(len(history), 6)]
	if len(older) == 0 {
		return TrendStable
	}

	recentAvg := meanMotivacion(history[:3])
	olderAvg := meanMotivacion(older)
	switch {
	case recentAvg > olderAvg+1:
		return TrendImproving
	case recentAvg < olderAvg-1:
		return TrendDeclining
	}
	return TrendStable
}

func meanMotivacion(states []core.EmotionalState) float64 {
	sum := 0.0
	for _, s := range states {
		sum += s.Motivacion
	}
	return sum / float64(len(states))
}

func revenueGoal(goals []core.Goal) *core.Goal {
	for i := range goals {
		if goals[i].Tipo == core.GoalRevenueTotal {
			return &goals[i]
		}
	}
	return nil
}

func progressFacet(goals []core.Goal, cc core.CurrentContext, now time.Time) ProgressFacet {
	p := ProgressFacet{
		Porcentaje:         cc.ObjetivoMesProgress,
		Proyeccion:         cc.ProyeccionMes,
		Gap:                cc.Gap,
		VelocidadActual:    cc.VelocidadActual,
		VelocidadNecesaria: cc.VelocidadNecesaria,
		DiasRestantes:      daysInMonth(now) - now.Day(),
	}
	if g := revenueGoal(goals); g != nil {
		p.Objetivo = g.ValorObjetivo
		p.Actual = g.ValorActual
	}
	p.Realista = p.Proyeccion >= p.Objetivo*0.8
	p.Urgencia = p.DiasRestantes < 10 && gapFractionReached(p.Gap, p.Objetivo)
	return p
}

// gapFractionReached reports gap/objetivo >= 0.3; the 30% boundary itself counts.
func gapFractionReached(gap, objetivo float64) bool {
	if objetivo <= 0 {
		return false
	}
	return gap >= objetivo*urgentGapFraction
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

func pipelineFacet(contacts []core.Contact, cc core.CurrentContext) PipelineFacet {
	p := PipelineFacet{
		Total:              len(contacts),
		DiasSinProspeccion: cc.DiasSinActividad,
	}

	stages := make(map[core.Stage]int)
	for _, c := range contacts {
		switch {
		case c.IsHot():
			p.Calientes++
		case c.IsWarm():
			p.Tibios++
		default:
			p.Frios++
		}
		stages[c.Stage]++
	}
	p.PropuestasPendientes = stages[core.StagePropuesta]
	p.DemosPendientes = stages[core.StageDemo]

	if p.Total > 0 {
		p.Salud = (float64(p.Calientes)*1.5 + float64(p.Tibios)) / float64(p.Total)
	}
	p.Bottleneck = bottleneck(stages)
	return p
}

// bottleneck checks the stage counts in fixed priority order
func bottleneck(stages map[core.Stage]int) Bottleneck {
	switch {
	case stages[core.StageProspecto] > 20:
		return BottleneckProspection
	case stages[core.StageConversacion] > stages[core.StageDemo]*2:
		return BottleneckConversionDemo
	case stages[core.StagePropuesta] > 5:
		return BottleneckClose
	}
	return BottleneckNone
}

func momentumFacet(interactions []core.Interaction, cc core.CurrentContext) MomentumFacet {
	estado := cc.Momentum
	if estado == "" {
		estado = string(TrendStable)
	}
	return MomentumFacet{
		Estado:        estado,
		RachaActual:   cc.RachaActual,
		MejorRacha:    cc.MejorRachaMes,
		CierresMes:    cc.CierresUltimos30d,
		VsMesAnterior: cc.CierresVsMesAnterior,
		Tendencia:     momentumTrend(interactions),
	}
}

// momentumTrend compares the positive rate of the newer half of the history with the older half.
func momentumTrend(interactions []core.Interaction) Trend {
	if len(interactions) < 5 {
		return TrendStarting
	}
	mid := len(interactions) / 2
	recentRate := positiveRate(interactions[:mid])
	olderRate := positiveRate(interactions[mid:])

	switch {
	case recentRate > olderRate+0.1:
		return TrendAccelerating
	case recentRate < olderRate-0.1:
		return TrendDeclining
	}
	return TrendStable
}

func positiveRate(interactions []core.Interaction) float64 {
	n := 0
	for _, in := range interactions {
		if in.Resultado.IsPositive() {
			n++
		}
	}
	return float64(n) / float64(len(interactions))
}

func timingFacet(profile core.Profile, ww learning.WhatWorks, now time.Time) TimingFacet {
	return TimingFacet{
		Hora:            now.Hour(),
		DiaSemana:       core.WeekdayName(now.Weekday()),
		EnergiaAhora:    energyAt(profile.BloquesEnergia, now.Hour()),
		MejorMomentoHoy: profile.MejorMomentoDia,
		MomentoOptimo:   ww.MomentoOptimo(now),
	}
}

func energyAt(blocks core.EnergyBlocks, hour int) string {
	or := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	switch {
	case hour >= 6 && hour < 12:
		return or(blocks.Manana, "media")
	case hour >= 12 && hour < 18:
		return or(blocks.Tarde, "media")
	case hour >= 18 && hour < 22:
		return or(blocks.Noche, "baja")
	}
	return "baja"
}
