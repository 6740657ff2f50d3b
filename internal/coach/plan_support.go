package coach

import (
	"fmt"
	"time"
)

const (
	defaultCausa    = "No identificada"
	defaultFrase    = "Un paso a la vez. Vos podés."
	emotionalImpact = "Baja motivación reduce conversión 40%+ según datos históricos."
	defaultSpeechUI = "Usar tu mejor speech validado"
)

var supportCategories = []string{"abrumado", "estancado", "sin_clientes"}

// EmotionalSupportPlan holds the conversation before any tactic.
type EmotionalSupportPlan struct {
	Diagnostico       EmotionalDiagnosis `json:"diagnostico"`
	AccionInmediata   QuickWinMenu       `json:"accion_inmediata"`
	RecursosApoyo     []SupportItem      `json:"recursos_apoyo"`
	FraseMotivacional string             `json:"frase_motivacional"`
}

func (EmotionalSupportPlan) planDetail() {}

// EmotionalDiagnosis explains the emotional lever
type EmotionalDiagnosis struct {
	Estado       string  `json:"estado"`
	Motivacion   float64 `json:"motivacion"`
	Estres       float64 `json:"estres"`
	PosibleCausa string  `json:"posible_causa"`
	Impacto      string  `json:"impacto"`
}

// QuickWinMenu offers ranked small wins
type QuickWinMenu struct {
	Tipo        string     `json:"tipo"`
	Descripcion string     `json:"descripcion"`
	Opciones    []QuickWin `json:"opciones"`
}

// QuickWin is a short action likely to succeed.
type QuickWin struct {
	Rank             int     `json:"rank"`
	Accion           string  `json:"accion"`
	TiempoMin        int     `json:"tiempo_min"`
	Probabilidad     float64 `json:"probabilidad"`
	ImpactoEmocional string  `json:"impacto_emocional,omitempty"`
	Speech           string  `json:"speech,omitempty"`
}

// SupportItem is a resource suggested with the plan
type SupportItem struct {
	Titulo      string `json:"titulo"`
	Descripcion string `json:"descripcion"`
	URL         string `json:"url,omitempty"`
}

func (g *Generator) emotionalSupport(r *planRun) Plan {
	emo := r.snap.Emotional

	causa := defaultCausa
	notes, err := g.store.RecentEmotionalStates(r.ctx, r.userID, time.Time{}, 3)
	if err != nil {
		r.degrade("emotional_notes", err)
	}
	for _, n := range notes {
		if n.QuePaso != "" {
			causa = n.QuePaso
			break
		}
	}

	var recursos []SupportItem
	resources, err := g.store.SupportResources(r.ctx, supportCategories, 3)
	if err != nil {
		r.degrade("support_resources", err)
	}
	for _, res := range resources {
		recursos = append(recursos, SupportItem{Titulo: res.Titulo, Descripcion: res.Descripcion, URL: res.URL})
	}

	category := "abrumado"
	if emo.Motivacion < 5 {
		category = "sin_clientes"
	}
	frase := defaultFrase
	phrases, err := g.store.MotivationalPhrases(r.ctx, category, 1)
	if err != nil {
		r.degrade("motivational_phrases", err)
	}
	if len(phrases) > 0 {
		frase = phrases[0].Frase
	}

	speech, ok := r.ww.BestSpeech()
	if !ok {
		speech = defaultSpeechUI
	}

	return Plan{
		Type:             LeverEmotionalSupport,
		MensajePrincipal: fmt.Sprintf("Che %s, noto que estás con baja energía. Antes de planear acciones, hablemos.", firstName(r.profile)),
		Confidence:       fixedConfidence(LeverEmotionalSupport),
		Detail: &EmotionalSupportPlan{
			Diagnostico: EmotionalDiagnosis{
				Estado:       emo.Estado,
				Motivacion:   emo.Motivacion,
				Estres:       emo.Estres,
				PosibleCausa: causa,
				Impacto:      emotionalImpact,
			},
			AccionInmediata: QuickWinMenu{
				Tipo:        "micro_win",
				Descripcion: "Generá un win rápido para recuperar confianza",
				Opciones: []QuickWin{
					{
						Rank:             1,
						Accion:           "Pedí testimonio a cliente feliz",
						TiempoMin:        10,
						Probabilidad:     0.9,
						ImpactoEmocional: "alto",
						Speech:           "Che [cliente], ¿te puedo pedir un favor? Estoy armando casos de éxito. ¿Me contarías en 2-3 líneas qué cambió desde que empezaste a usar [producto]?",
					},
					{
						Rank:             2,
						Accion:           "Contactá lead caliente casi cerrado",
						TiempoMin:        15,
						Probabilidad:     0.7,
						ImpactoEmocional: "muy alto",
						Speech:           speech,
					},
					{
						Rank:             3,
						Accion:           "Publicá win reciente en LinkedIn",
						TiempoMin:        10,
						Probabilidad:     0.8,
						ImpactoEmocional: "medio-alto",
					},
				},
			},
			RecursosApoyo:     recursos,
			FraseMotivacional: frase,
		},
	}
}
