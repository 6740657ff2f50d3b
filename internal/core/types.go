// Package core defines the fundamental records of the sales coach.
// Every stored row the decision engine reads is described here.
package core

import (
	"time"
)

// -----------------------------------------------------------------------------
// PROFILE - The commercial profile collected by the wizard
// -----------------------------------------------------------------------------

// EnergyBlocks describes how much energy the user reports per part of the day.
// Values are free text, typically "alta", "media" or "baja".
type EnergyBlocks struct {
	Manana string `json:"manana,omitempty"`
	Tarde  string `json:"tarde,omitempty"`
	Noche  string `json:"noche,omitempty"`
}

// Profile is the user's commercial profile. There is exactly one per user.
type Profile struct {
	UserID           string       `json:"user_id"`
	Nombre           string       `json:"nombre"`
	Negocio          string       `json:"negocio"`
	ICPPrincipal     string       `json:"icp_principal"`
	RevenueActual    float64      `json:"revenue_actual"`
	RevenueObjetivo  float64      `json:"revenue_objetivo"`
	TiempoDisponible float64      `json:"tiempo_disponible"` // hours per week
	DiscProfile      string       `json:"disc_profile"`      // serialized {"D":..,"I":..,"S":..,"C":..}
	BloquesEnergia   EnergyBlocks `json:"bloques_energia"`
	MejorMomentoDia  string       `json:"mejor_momento_dia"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// -----------------------------------------------------------------------------
// GOAL
// -----------------------------------------------------------------------------

// GoalType identifies what a goal measures
type GoalType string

const (
	GoalRevenueTotal GoalType = "revenue_total"
	GoalContactos    GoalType = "contactos"
	GoalDemos        GoalType = "demos"
	GoalCierres      GoalType = "cierres"
)

// GoalStatus tracks the goal lifecycle
type GoalStatus string

const (
	GoalActive    GoalStatus = "activo"
	GoalAchieved  GoalStatus = "cumplido"
	GoalCancelled GoalStatus = "cancelado"
)

// Goal is a numeric target for a period.
type Goal struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Tipo          GoalType   `json:"tipo"`
	ValorObjetivo float64    `json:"valor_objetivo"`
	ValorActual   float64    `json:"valor_actual"`
	Periodo       string     `json:"periodo"` // e.g. "2026-10"
	Estado        GoalStatus `json:"estado"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// -----------------------------------------------------------------------------
// CONTACT - A lead or client in the pipeline
// -----------------------------------------------------------------------------

// ContactType separates live leads from clients and archived rows
type ContactType string

const (
	ContactLead     ContactType = "lead"
	ContactClient   ContactType = "cliente"
	ContactArchived ContactType = "archivado"
)

// Stage is the pipeline stage of a contact
type Stage string

const (
	StageProspecto    Stage = "prospecto"
	StageContactado   Stage = "contactado"
	StageConversacion Stage = "conversacion"
	StageDemo         Stage = "demo"
	StagePropuesta    Stage = "propuesta"
	StageCerrado      Stage = "cerrado"
)

// Temperature thresholds (0-100 scale)
const (
	HotThreshold  = 70 // caliente: temperatura > 70
	WarmThreshold = 40 // tibio: 40 <= temperatura <= 70, frio below
)

// Contact is a person in the user's pipeline.
type Contact struct {
	ID                string      `json:"id"`
	UserID            string      `json:"user_id"`
	Nombre            string      `json:"nombre"`
	Empresa           string      `json:"empresa"`
	Email             string      `json:"email,omitempty"`
	Telefono          string      `json:"telefono,omitempty"`
	Tipo              ContactType `json:"tipo"`
	Stage             Stage       `json:"stage"`
	Temperatura       int         `json:"temperatura"`
	StageFechaEntrada time.Time   `json:"stage_fecha_entrada"`
	UltimaInteraccion *time.Time  `json:"ultima_interaccion,omitempty"`
	ValorEstimado     float64     `json:"valor_estimado,omitempty"`
	Notas             string      `json:"notas,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// IsHot reports whether the contact is caliente
func (c Contact) IsHot() bool { return c.Temperatura > HotThreshold }

// IsWarm reports whether the contact is tibio
func (c Contact) IsWarm() bool {
	return c.Temperatura >= WarmThreshold && c.Temperatura <= HotThreshold
}

// IsCold reports whether the contact is frio
func (c Contact) IsCold() bool { return c.Temperatura < WarmThreshold }

// ContactOrder selects the sort order of a contact query
type ContactOrder string

const (
	OrderByTemperature     ContactOrder = "temperatura"        // temperature desc
	OrderByLastInteraction ContactOrder = "ultima_interaccion" // most recent first
	OrderByStageEntry      ContactOrder = "stage_fecha_entrada"
)

// ContactFilter narrows a contact query. Zero values mean "no filter".
type ContactFilter struct {
	Stage           Stage
	MinTemperature  *int // inclusive
	MaxTemperature  *int // exclusive
	ExcludeArchived bool
	OrderBy         ContactOrder
	Limit           int
}

// -----------------------------------------------------------------------------
// INTERACTION - A touchpoint with a contact
// -----------------------------------------------------------------------------

// Outcome is the result of an interaction
type Outcome string

const (
	OutcomePositive   Outcome = "positivo"
	OutcomeInterested Outcome = "interesado"
	OutcomeNeutral    Outcome = "neutral"
	OutcomeNegative   Outcome = "negativo"
	OutcomeNoAnswer   Outcome = "sin_respuesta"
	OutcomeClosed     Outcome = "cerrado"
)

// IsPositive reports whether the outcome counts toward momentum
func (o Outcome) IsPositive() bool {
	return o == OutcomePositive || o == OutcomeInterested
}

// Interaction records one outreach or meeting.
type Interaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ContactID string    `json:"contact_id,omitempty"`
	Tipo      string    `json:"tipo"`  // mensaje, llamada, demo, propuesta, seguimiento
	Canal     string    `json:"canal"` // linkedin, email, whatsapp, telefono
	Resultado Outcome   `json:"resultado"`
	Valor     float64   `json:"valor,omitempty"`
	Fecha     time.Time `json:"fecha"`
	Notas     string    `json:"notas,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// -----------------------------------------------------------------------------
// EMOTIONAL STATE
// -----------------------------------------------------------------------------

// EmotionalState is a self-reported check-in. Scores are 0-10.
type EmotionalState struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Fecha       time.Time `json:"fecha"`
	Sentimiento string    `json:"sentimiento"`
	Energia     float64   `json:"energia"`
	Motivacion  float64   `json:"motivacion"`
	Estres      float64   `json:"estres"`
	Confianza   float64   `json:"confianza"`
	QuePaso     string    `json:"que_paso,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// -----------------------------------------------------------------------------
// CURRENT CONTEXT - Derived per-user aggregate
// -----------------------------------------------------------------------------

// MomentumState values stored in the current context
const (
	MomentumAccelerating = "acelerando"
	MomentumStable       = "estable"
	MomentumDeclining    = "declinando"
	MomentumStarting     = "iniciando"
)

// CurrentContext is recomputed from goals, contacts and interactions.
// ObjetivoMesProgress is a percentage (0-100+).
type CurrentContext struct {
	UserID               string    `json:"user_id"`
	ObjetivoMesProgress  float64   `json:"objetivo_mes_progress"`
	ProyeccionMes        float64   `json:"proyeccion_mes"`
	Gap                  float64   `json:"gap"`
	VelocidadActual      float64   `json:"velocidad_actual"`
	VelocidadNecesaria   float64   `json:"velocidad_necesaria"`
	DiasSinActividad     int       `json:"dias_sin_actividad"`
	Momentum             string    `json:"momentum"`
	RachaActual          int       `json:"racha_actual"`
	MejorRachaMes        int       `json:"mejor_racha_mes"`
	CierresUltimos30d    int       `json:"cierres_ultimos_30d"`
	CierresVsMesAnterior float64   `json:"cierres_vs_mes_anterior"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// -----------------------------------------------------------------------------
// LEARNED PATTERNS - "what works" for this user
// -----------------------------------------------------------------------------

// PatternType categorizes learned patterns
type PatternType string

const (
	PatternTiming   PatternType = "timing"
	PatternCanal    PatternType = "canal"
	PatternSpeech   PatternType = "speech"
	PatternFollowUp PatternType = "follow_up"
)

// PatternStatus separates hypotheses from confirmed patterns
type PatternStatus string

const (
	PatternHypothesis PatternStatus = "hipotesis"
	PatternConfirmed  PatternStatus = "confirmado"
)

// Pattern is something that demonstrably works for the user.
type Pattern struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	PatternType    PatternType   `json:"pattern_type"`
	Estado         PatternStatus `json:"estado"`
	NivelConfianza float64       `json:"nivel_confianza"`
	MejorHorario   string        `json:"mejor_horario,omitempty"`    // "10:00-11:00"
	MejorDiaSemana string        `json:"mejor_dia_semana,omitempty"` // "martes"
	Canal          string        `json:"canal,omitempty"`
	TasaExito      float64       `json:"tasa_exito,omitempty"`
	MejorSpeech    string        `json:"mejor_speech,omitempty"`
	Descripcion    string        `json:"descripcion"`
	SampleCount    int           `json:"sample_count"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// -----------------------------------------------------------------------------
// REFERENCE DATA
// -----------------------------------------------------------------------------

// SupportResource is a curated resource for a low-energy moment.
type SupportResource struct {
	ID          string `json:"id" yaml:"id"`
	Categoria   string `json:"categoria" yaml:"categoria"`
	Titulo      string `json:"titulo" yaml:"titulo"`
	Descripcion string `json:"descripcion" yaml:"descripcion"`
	URL         string `json:"url,omitempty" yaml:"url"`
}

// MotivationalPhrase is a short phrase shown with emotional support plans.
type MotivationalPhrase struct {
	ID        string `json:"id" yaml:"id"`
	Categoria string `json:"categoria" yaml:"categoria"`
	Frase     string `json:"frase" yaml:"frase"`
	Autor     string `json:"autor,omitempty" yaml:"autor"`
}

// -----------------------------------------------------------------------------
// CATALOG - Services and ideal customer profiles
// -----------------------------------------------------------------------------

// Service is something the user sells.
type Service struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Nombre      string    `json:"nombre"`
	Descripcion string    `json:"descripcion,omitempty"`
	Precio      float64   `json:"precio"`
	Activo      bool      `json:"activo"`
	Orden       int       `json:"orden"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ICP is an ideal customer profile.
type ICP struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Nombre      string    `json:"nombre"`
	Descripcion string    `json:"descripcion,omitempty"`
	Industria   string    `json:"industria,omitempty"`
	Tamano      string    `json:"tamano,omitempty"`
	Activo      bool      `json:"activo"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// -----------------------------------------------------------------------------
// CALENDAR helpers
// -----------------------------------------------------------------------------

var weekdayNames = [...]string{"domingo", "lunes", "martes", "miercoles", "jueves", "viernes", "sabado"}

// WeekdayName returns the Spanish lowercase name used in patterns and snapshots
func WeekdayName(d time.Weekday) string {
	return weekdayNames[d]
}
