package coach

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/salescoach/salescoach/internal/core"
	"github.com/salescoach/salescoach/internal/learning"
)

var testNow = time.Date(2026, 10, 22, 15, 0, 0, 0, time.UTC) // Thursday, 9 days left

func contactsAt(temps ...int) []core.Contact {
	out := make([]core.Contact, 0, len(temps))
	for _, t := range temps {
		out = append(out, core.Contact{Temperatura: t, Stage: core.StageContactado})
	}
	return out
}

func emotionalSeries(motivaciones ...float64) []core.EmotionalState {
	out := make([]core.EmotionalState, 0, len(motivaciones))
	for _, m := range motivaciones {
		out = append(out, core.EmotionalState{Sentimiento: "ok", Energia: 6, Motivacion: m, Estres: 4, Confianza: 6})
	}
	return out
}

func TestBuildSnapshot_PipelineBuckets(t *testing.T) {
	s := BuildSnapshot(Inputs{Contacts: contactsAt(100, 71, 70, 40, 39, 0)}, testNow)

	p := s.Pipeline
	if p.Calientes != 2 || p.Tibios != 2 || p.Frios != 2 {
		t.Errorf("buckets = %d/%d/%d, want 2/2/2", p.Calientes, p.Tibios, p.Frios)
	}
	if p.Total != p.Calientes+p.Tibios+p.Frios {
		t.Errorf("total %d != sum of buckets", p.Total)
	}
	if want := (2*1.5 + 2) / 6; p.Salud != want {
		t.Errorf("Salud = %v, want %v", p.Salud, want)
	}
}

func TestBuildSnapshot_EmptyPipeline(t *testing.T) {
	s := BuildSnapshot(Inputs{}, testNow)
	if s.Pipeline.Total != 0 || s.Pipeline.Salud != 0 {
		t.Errorf("empty pipeline = %+v", s.Pipeline)
	}
	if s.Pipeline.Bottleneck != BottleneckNone {
		t.Errorf("Bottleneck = %s, want none", s.Pipeline.Bottleneck)
	}
}

func TestBottleneck(t *testing.T) {
	tests := []struct {
		name   string
		stages map[core.Stage]int
		want   Bottleneck
	}{
		{"many prospects", map[core.Stage]int{core.StageProspecto: 21, core.StageConversacion: 10}, BottleneckProspection},
		{"exactly 20 prospects", map[core.Stage]int{core.StageProspecto: 20}, BottleneckNone},
		{"conversations without demos", map[core.Stage]int{core.StageConversacion: 5, core.StageDemo: 2}, BottleneckConversionDemo},
		{"conversations equal twice demos", map[core.Stage]int{core.StageConversacion: 4, core.StageDemo: 2}, BottleneckNone},
		{"proposals pile up", map[core.Stage]int{core.StagePropuesta: 6}, BottleneckClose},
		{"nothing", map[core.Stage]int{}, BottleneckNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bottleneck(tt.stages); got != tt.want {
				t.Errorf("bottleneck() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBuildSnapshot_EmotionalDefaults(t *testing.T) {
	got := BuildSnapshot(Inputs{}, testNow).Emotional
	want := EmotionalFacet{Estado: "neutral", Energia: 7, Motivacion: 7, Estres: 5, Confianza: 7, Tendencia: TrendStable}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("emotional defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestEmotionalTrend(t *testing.T) {
	tests := []struct {
		name    string
		history []core.EmotionalState
		want    Trend
	}{
		{"fewer than three", emotionalSeries(9, 1), TrendStable},
		{"exactly three", emotionalSeries(9, 9, 9), TrendStable},
		{"improving", emotionalSeries(8, 8, 8, 5, 5, 5), TrendImproving},
		{"declining", emotionalSeries(3, 3, 3, 7, 7), TrendDeclining},
		{"within one point", emotionalSeries(6, 6, 6, 5, 5, 5), TrendStable},
		{"only newest six count", emotionalSeries(8, 8, 8, 8, 8, 8, 1), TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := emotionalTrend(tt.history); got != tt.want {
				t.Errorf("emotionalTrend() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBuildSnapshot_EmotionalAlert(t *testing.T) {
	tests := []struct {
		motivacion, estres float64
		want               bool
	}{
		{3.9, 5, true},
		{4, 7, false},
		{8, 7.5, true},
	}
	for _, tt := range tests {
		in := Inputs{Emotional: []core.EmotionalState{{Motivacion: tt.motivacion, Estres: tt.estres}}}
		if got := BuildSnapshot(in, testNow).Emotional.Alerta; got != tt.want {
			t.Errorf("Alerta(mot=%v, estres=%v) = %v, want %v", tt.motivacion, tt.estres, got, tt.want)
		}
	}
}

func outcomes(results ...core.Outcome) []core.Interaction {
	out := make([]core.Interaction, 0, len(results))
	for _, r := range results {
		out = append(out, core.Interaction{Resultado: r})
	}
	return out
}

func TestMomentumTrend(t *testing.T) {
	pos, neg := core.OutcomePositive, core.OutcomeNegative
	tests := []struct {
		name string
		in   []core.Interaction
		want Trend
	}{
		{"too few", outcomes(pos, pos, pos, pos), TrendStarting},
		{"accelerating", outcomes(pos, pos, neg, neg, neg, neg), TrendAccelerating},
		{"declining", outcomes(neg, neg, pos, pos, pos, pos), TrendDeclining},
		{"stable", outcomes(pos, neg, pos, pos, neg, pos), TrendStable},
		{"interested counts as positive", outcomes(core.OutcomeInterested, core.OutcomeInterested, neg, neg, neg), TrendAccelerating},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := momentumTrend(tt.in); got != tt.want {
				t.Errorf("momentumTrend() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBuildSnapshot_Progress(t *testing.T) {
	in := Inputs{
		Goals: []core.Goal{
			{Tipo: core.GoalContactos, ValorObjetivo: 100},
			{Tipo: core.GoalRevenueTotal, ValorObjetivo: 10000, ValorActual: 4400},
		},
		Context: &core.CurrentContext{
			ObjetivoMesProgress: 44,
			ProyeccionMes:       6200,
			Gap:                 5600,
			VelocidadActual:     200,
			VelocidadNecesaria:  622.2,
		},
	}
	got := BuildSnapshot(in, testNow).Progress
	want := ProgressFacet{
		Porcentaje:         44,
		Proyeccion:         6200,
		Gap:                5600,
		VelocidadActual:    200,
		VelocidadNecesaria: 622.2,
		Objetivo:           10000,
		Actual:             4400,
		DiasRestantes:      9,
		Realista:           false,
		Urgencia:           true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSnapshot_UrgencyBoundary(t *testing.T) {
	goals := []core.Goal{{Tipo: core.GoalRevenueTotal, ValorObjetivo: 10000}}
	tests := []struct {
		gap  float64
		now  time.Time
		want bool
	}{
		{3000, testNow, true},
		{2999, testNow, false},
		{5000, time.Date(2026, 10, 10, 9, 0, 0, 0, time.UTC), false}, // 21 days left
	}
	for _, tt := range tests {
		in := Inputs{Goals: goals, Context: &core.CurrentContext{Gap: tt.gap}}
		if got := BuildSnapshot(in, tt.now).Progress.Urgencia; got != tt.want {
			t.Errorf("Urgencia(gap=%v, %s) = %v, want %v", tt.gap, tt.now.Format("01-02"), got, tt.want)
		}
	}

	if BuildSnapshot(Inputs{Context: &core.CurrentContext{Gap: 5000}}, testNow).Progress.Urgencia {
		t.Error("Urgencia must be false without an objective")
	}
}

func TestBuildSnapshot_MomentumFacet(t *testing.T) {
	in := Inputs{Context: &core.CurrentContext{
		RachaActual:          3,
		MejorRachaMes:        5,
		CierresUltimos30d:    4,
		CierresVsMesAnterior: -0.25,
	}}
	got := BuildSnapshot(in, testNow).Momentum
	want := MomentumFacet{Estado: "estable", RachaActual: 3, MejorRacha: 5, CierresMes: 4, VsMesAnterior: -0.25, Tendencia: TrendStarting}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("momentum mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSnapshot_Timing(t *testing.T) {
	profile := &core.Profile{BloquesEnergia: core.EnergyBlocks{Tarde: "alta"}, MejorMomentoDia: "tarde"}
	ww := learning.FromPatterns([]core.Pattern{{
		PatternType:    core.PatternTiming,
		Estado:         core.PatternConfirmed,
		MejorDiaSemana: "jueves",
		MejorHorario:   "15:00-16:00",
	}})

	got := BuildSnapshot(Inputs{Profile: profile, WhatWorks: ww}, testNow).Timing
	want := TimingFacet{Hora: 15, DiaSemana: "jueves", EnergiaAhora: "alta", MejorMomentoHoy: "tarde", MomentoOptimo: true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("timing mismatch (-want +got):\n%s", diff)
	}
}

func TestEnergyAt(t *testing.T) {
	blocks := core.EnergyBlocks{Manana: "alta"}
	tests := []struct {
		hour int
		want string
	}{
		{5, "baja"},
		{6, "alta"},
		{11, "alta"},
		{12, "media"},
		{18, "baja"},
		{22, "baja"},
	}
	for _, tt := range tests {
		if got := energyAt(blocks, tt.hour); got != tt.want {
			t.Errorf("energyAt(%d) = %s, want %s", tt.hour, got, tt.want)
		}
	}
}

func TestBuildSnapshot_Deterministic(t *testing.T) {
	in := Inputs{
		Contacts:     contactsAt(80, 50, 10),
		Emotional:    emotionalSeries(5, 6, 7, 8),
		Interactions: outcomes(core.OutcomePositive, core.OutcomeNegative, core.OutcomeNeutral, core.OutcomePositive, core.OutcomeClosed),
		Context:      &core.CurrentContext{Gap: 1000, DiasSinActividad: 2},
	}
	if diff := cmp.Diff(BuildSnapshot(in, testNow), BuildSnapshot(in, testNow)); diff != "" {
		t.Errorf("snapshot not deterministic:\n%s", diff)
	}
}
