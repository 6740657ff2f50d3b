package coach

import (
	"strings"
	"testing"
)

func TestParseDISC(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want DISC
	}{
		{"valid", `{"D":80,"I":20,"S":30,"C":70}`, DISC{D: 80, I: 20, S: 30, C: 70}},
		{"empty", "", NeutralDISC},
		{"blank", "   ", NeutralDISC},
		{"malformed", `{"D":`, NeutralDISC},
		{"not an object", `"dominante"`, NeutralDISC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseDISC(tt.in); got != tt.want {
				t.Errorf("ParseDISC(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSelectStyle(t *testing.T) {
	accelerating := MomentumFacet{Estado: "acelerando"}
	stable := MomentumFacet{Estado: "estable", Tendencia: TrendStable}
	motivated := EmotionalFacet{Motivacion: 8}
	low := EmotionalFacet{Motivacion: 4}

	tests := []struct {
		name string
		disc DISC
		emo  EmotionalFacet
		mom  MomentumFacet
		want Style
	}{
		{"dominant on a roll", DISC{D: 80}, motivated, accelerating, StyleDirect},
		{"dominant with trend only", DISC{D: 80}, motivated, MomentumFacet{Tendencia: TrendAccelerating}, StyleDirect},
		{"dominant but demotivated", DISC{D: 80, I: 70}, low, accelerating, StyleSupportive},
		{"influencer stalled", DISC{I: 70}, motivated, stable, StyleSupportive},
		{"steady and low", DISC{S: 66}, low, accelerating, StyleSupportive},
		{"conscientious", DISC{C: 90}, motivated, stable, StyleAnalytical},
		{"influencer on a roll falls to analytical", DISC{I: 70, C: 70}, motivated, accelerating, StyleAnalytical},
		{"exactly 65 is not high", DISC{D: 65, I: 65, S: 65, C: 65}, motivated, accelerating, StyleBalanced},
		{"neutral", NeutralDISC, motivated, stable, StyleBalanced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectStyle(tt.disc, tt.emo, tt.mom); got != tt.want {
				t.Errorf("SelectStyle() = %s, want %s", got, tt.want)
			}
		})
	}
}

func newTestCrafter(t *testing.T) *Crafter {
	t.Helper()
	c, err := NewCrafter()
	if err != nil {
		t.Fatalf("NewCrafter() error = %v", err)
	}
	return c
}

func proposalPlan() Plan {
	return Plan{
		Type:             LeverProposalFollowUp,
		MensajePrincipal: "Lucía, tenés 4 propuestas sin cerrar. Día 5-7 post-propuesta es crítico.",
		Confidence:       0.9,
		Detail: &ProposalPlan{
			Diagnostico: ProposalDiagnosis{PropuestasPendientes: 4, ValorPipeline: 2800, ConversionRateHistorica: 0.5, ValorEsperado: 1400},
			Urgentes: []FollowUp{
				{Nombre: "Martina", Empresa: "Acme", DiasDesde: 6, Valor: 700, Accion: "Llamar HOY", Script: "Hola Martina, ¿cómo viene la decisión?"},
				{Nombre: "Joaquín", Empresa: "Globex", DiasDesde: 7, Valor: 700, Accion: "Llamar HOY"},
				{Nombre: "Valentina", Empresa: "Initech", DiasDesde: 9, Valor: 1200, Accion: "Llamar HOY"},
			},
			Proximas: []FollowUp{{Nombre: "Tomás", Empresa: "Umbrella", DiasDesde: 3, Accion: "Agendar mañana"}},
			Insights: closingInsights,
		},
	}
}

func directSnapshot() Snapshot {
	s := calmSnapshot()
	s.Emotional.Motivacion = 8
	s.Momentum.Estado = "acelerando"
	s.Progress.Objetivo, s.Progress.Actual, s.Progress.Gap = 10000, 4400, 5600
	return s
}

func TestCraft_DirectProposalListsEachUrgentOnce(t *testing.T) {
	c := newTestCrafter(t)
	style, msg := c.Craft(proposalPlan(), `{"D":80,"I":30,"S":30,"C":40}`, directSnapshot())

	if style != StyleDirect {
		t.Fatalf("style = %s, want %s", style, StyleDirect)
	}
	last := -1
	for _, name := range []string{"Martina", "Joaquín", "Valentina"} {
		if n := strings.Count(msg, name); n != 1 {
			t.Errorf("%s appears %d times, want exactly once:\n%s", name, n, msg)
		}
		idx := strings.Index(msg, name)
		if idx < last {
			t.Errorf("%s out of plan order", name)
		}
		last = idx
	}
	for _, want := range []string{"OBJETIVO MES: $10,000", "GAP: $5,600", "1. Martina (Acme) - Día 6 - Llamar HOY", "• 1 cierres esperados", "$1,400"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "Tomás") {
		t.Error("upcoming proposals belong to the supportive and analytical renderings only")
	}
}

func TestCraft_DirectEmergency(t *testing.T) {
	c := newTestCrafter(t)
	plan := Plan{
		Type:             LeverPipelineEmergency,
		MensajePrincipal: "🚨 Lucía, pipeline crítico.",
		Confidence:       0.85,
		Detail: &ProspectingPlan{
			Diagnostico: PipelineDiagnosis{LeadsCalientes: 1, LeadsTibios: 2, DiasHastaSecar: 1},
			Rescate: RescuePlan{
				ObjetivoHoy: 20, ObjetivoSemana: 100, Canal: "linkedin", Horario: "10:00-11:00",
				ConversionEsperada: 0.15, SpeechValidado: "¿Te sumás a una demo de 15 minutos?",
			},
		},
	}
	_, msg := c.Craft(plan, `{"D":90}`, directSnapshot())

	for _, want := range []string{
		"🚨 ALERTA PIPELINE",
		"• 100 contactos necesarios esta semana",
		"• 1 días hasta pipeline seco",
		"• Conversión esperada: 15%",
		"META HOY: 20 contactos",
		`Speech: "¿Te sumás a una demo de 15 minutos?"`,
		"• → 30 respuestas\n• → 15 demos\n• → 7 cierres",
		"NO ES OPCIONAL. Es matemática.",
		"¿Bloqueamos 1h ahora?",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}

	plan.Detail.(*ProspectingPlan).Rescate.SpeechValidado = ""
	if _, msg := c.Craft(plan, `{"D":90}`, directSnapshot()); strings.Contains(msg, "Speech:") {
		t.Errorf("empty speech should be omitted:\n%s", msg)
	}
}

func TestCraft_SupportiveEmotional(t *testing.T) {
	c := newTestCrafter(t)
	snap := calmSnapshot()
	snap.Emotional.Motivacion, snap.Emotional.Energia = 3, 4

	plan := Plan{
		Type:             LeverEmotionalSupport,
		MensajePrincipal: "Che Lucía, noto que estás con baja energía.",
		Confidence:       0.8,
		Detail: &EmotionalSupportPlan{
			Diagnostico:       EmotionalDiagnosis{PosibleCausa: "Perdí un cliente grande"},
			AccionInmediata:   QuickWinMenu{Opciones: momentumQuickWins},
			FraseMotivacional: "Un paso a la vez. Vos podés.",
		},
	}
	style, msg := c.Craft(plan, `{"D":20,"I":80,"S":70,"C":30}`, snap)
	if style != StyleSupportive {
		t.Fatalf("style = %s, want %s", style, StyleSupportive)
	}
	for _, want := range []string{"Hey 👋", "Un paso a la vez. Vos podés.", "4/10", "3/10", `"Perdí un cliente grande"`, "2. Pedí un testimonio (10 min, 90% de éxito)", "¿Cuál de las 3 te late más? 🚀"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestCraft_SupportiveEmergencyTruncatesSpeech(t *testing.T) {
	c := newTestCrafter(t)
	plan := Plan{
		Type: LeverPipelineEmergency,
		Detail: &ProspectingPlan{Rescate: RescuePlan{
			ObjetivoHoy:        15,
			ConversionEsperada: 0.2,
			Canal:              "linkedin",
			SpeechValidado:     strings.Repeat("x", 80),
		}},
	}
	snap := calmSnapshot()
	snap.Emotional.Motivacion = 4
	_, msg := c.Craft(plan, `{"I":80}`, snap)

	if !strings.Contains(msg, `"`+strings.Repeat("x", 50)+`..."`) {
		t.Errorf("speech should be cut at 50 characters:\n%s", msg)
	}
	if !strings.Contains(msg, "15 contactos hoy × 20% conversión = 3 conversaciones nuevas.") {
		t.Errorf("quota line missing:\n%s", msg)
	}
}

func TestCraft_AnalyticalProposal(t *testing.T) {
	c := newTestCrafter(t)
	style, msg := c.Craft(proposalPlan(), `{"C":85}`, calmSnapshot())

	if style != StyleAnalytical {
		t.Fatalf("style = %s, want %s", style, StyleAnalytical)
	}
	for _, want := range []string{
		"━━━",
		"Conversión histórica:      50.0%",
		"Martina              día  6  temp   0      $700",
		"Valentina            día  9  temp   0    $1,200",
		"Tomás                día  3",
		"Metodología validada:",
		"PLAN EJECUCIÓN",
		"Prioridad 1: Martina",
		`  Script: "Hola Martina, ¿cómo viene la decisión?"`,
		"Tiempo estimado: 45 minutos",
		"ROI esperado: $1,400",
		"Confianza del plan: 90.0%",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestCraft_BalancedGeneric(t *testing.T) {
	c := newTestCrafter(t)
	style, msg := c.Craft(proposalPlan(), "", calmSnapshot())

	if style != StyleBalanced {
		t.Fatalf("style = %s, want balanced", style)
	}
	if !strings.HasPrefix(msg, "Lucía, tenés 4 propuestas sin cerrar.") {
		t.Errorf("balanced message should open with the main message:\n%s", msg)
	}
	for _, want := range []string{"• Propuestas pendientes: 4", "• Valor pipeline: $2,800", "1. Martina - Llamar HOY", "¿Arrancamos?"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestCraft_MissingTemplateFallsBack(t *testing.T) {
	c := newTestCrafter(t)
	plan := Plan{Type: LeverMomentumRecovery, MensajePrincipal: "Vamos por 3 quick wins.", Detail: &MomentumPlan{}}

	style, msg := c.Craft(plan, `{"C":85}`, calmSnapshot())
	if style != StyleAnalytical || msg != "Vamos por 3 quick wins." {
		t.Errorf("Craft() = %s, %q; want main message", style, msg)
	}
}

func TestCraft_TemplateErrorFallsBack(t *testing.T) {
	c := newTestCrafter(t)
	plan := Plan{Type: LeverProposalFollowUp, MensajePrincipal: "Seguimiento de propuestas."}

	if _, msg := c.Craft(plan, `{"D":85}`, directSnapshot()); msg != "Seguimiento de propuestas." {
		t.Errorf("Craft() with missing detail = %q, want main message", msg)
	}
}

func TestFormatHelpers(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{money(10000), "$10,000"},
		{money(1234567.6), "$1,234,568"},
		{money(0), "$0"},
		{pct0(0.25), "25%"},
		{truncate("hola", 10), "hola"},
		{truncate("ñandú feliz", 5), "ñandú..."},
		{"Ana" + pad("Ana", 6) + "|", "Ana   |"},
		{num(3.5), "3.5"},
		{num(7), "7"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
