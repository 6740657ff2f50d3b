package coach

import "fmt"

// OptimizationPlan scales what already works.
type OptimizationPlan struct {
	Checklist   []ImprovementArea `json:"checklist"`
	Roadmap     []RoadmapMonth    `json:"roadmap"`
	TopPatterns []PatternSummary  `json:"top_patterns"`
}

func (OptimizationPlan) planDetail() {}

// ImprovementArea is one item of the optimization checklist
type ImprovementArea struct {
	Area     string `json:"area"`
	Pregunta string `json:"pregunta"`
	Accion   string `json:"accion"`
}

// RoadmapMonth is one month of the optimization roadmap
type RoadmapMonth struct {
	Mes      int    `json:"mes"`
	Foco     string `json:"foco"`
	Objetivo string `json:"objetivo"`
}

// PatternSummary echoes a learned pattern
type PatternSummary struct {
	Tipo           string  `json:"tipo"`
	Descripcion    string  `json:"descripcion"`
	NivelConfianza float64 `json:"nivel_confianza"`
}

var optimizationChecklist = []ImprovementArea{
	{Area: "Prospección", Pregunta: "¿Qué canal trae los leads más calientes?", Accion: "Duplicar tiempo en el canal ganador"},
	{Area: "Conversión", Pregunta: "¿En qué etapa se caen más leads?", Accion: "Reescribir el speech de esa etapa"},
	{Area: "Cierre", Pregunta: "¿Cuántos días tarda una propuesta en cerrarse?", Accion: "Follow-up fijo en día 5-7"},
	{Area: "Retención", Pregunta: "¿Qué clientes pueden comprar de nuevo o referir?", Accion: "Pedir un referido por cliente feliz"},
}

var optimizationRoadmap = []RoadmapMonth{
	{Mes: 1, Foco: "Documentar y sistematizar lo que funciona", Objetivo: "Playbook con speech, canal y horario validados"},
	{Mes: 2, Foco: "Escalar el canal ganador", Objetivo: "+30% de contactos en el canal con mejor conversión"},
	{Mes: 3, Foco: "Subir ticket promedio", Objetivo: "Paquete premium para los mejores clientes"},
}

const topPatternCount = 3

func (g *Generator) optimization(r *planRun) Plan {
	var top []PatternSummary
	for _, p := range r.ww.Top(topPatternCount) {
		top = append(top, PatternSummary{
			Tipo:           string(p.PatternType),
			Descripcion:    p.Descripcion,
			NivelConfianza: p.NivelConfianza,
		})
	}

	return Plan{
		Type:             LeverOptimization,
		MensajePrincipal: fmt.Sprintf("%s, el sistema está funcionando. Momento de escalar lo que funciona.", firstName(r.profile)),
		Confidence:       fixedConfidence(LeverOptimization),
		Detail: &OptimizationPlan{
			Checklist:   append([]ImprovementArea(nil), optimizationChecklist...),
			Roadmap:     append([]RoadmapMonth(nil), optimizationRoadmap...),
			TopPatterns: top,
		},
	}
}
