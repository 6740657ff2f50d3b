package testutil

import (
	"context"
	"strconv"
	"testing"

	"github.com/salescoach/salescoach/internal/core"
	"github.com/salescoach/salescoach/internal/storage"
)

// DefaultProfileFixture returns a complete profile with a neutral DISC score.
func DefaultProfileFixture(userID string) core.Profile {
	return core.Profile{
		UserID:           userID,
		Nombre:           "Lucía",
		Negocio:          "Consultoría comercial",
		ICPPrincipal:     "Pymes de software B2B",
		RevenueActual:    4400,
		RevenueObjetivo:  10000,
		TiempoDisponible: 20,
		DiscProfile:      `{"D":50,"I":50,"S":50,"C":50}`,
		BloquesEnergia:   core.EnergyBlocks{Manana: "alta", Tarde: "media", Noche: "baja"},
		MejorMomentoDia:  "manana",
	}
}

// ContactFixture returns a lead at the given stage and temperature that entered
// the stage daysInStage days before Now.
func ContactFixture(userID, nombre string, stage core.Stage, temperatura, daysInStage int) core.Contact {
	return core.Contact{
		UserID:            userID,
		Nombre:            nombre,
		Empresa:           nombre + " SRL",
		Tipo:              core.ContactLead,
		Stage:             stage,
		Temperatura:       temperatura,
		StageFechaEntrada: Now.AddDate(0, 0, -daysInStage),
	}
}

// InteractionFixture returns an interaction daysAgo days before Now.
func InteractionFixture(userID string, resultado core.Outcome, daysAgo int) core.Interaction {
	return core.Interaction{
		UserID:    userID,
		Tipo:      "mensaje",
		Canal:     "linkedin",
		Resultado: resultado,
		Fecha:     Now.AddDate(0, 0, -daysAgo),
	}
}

// EmotionalFixture returns a check-in daysAgo days before Now.
func EmotionalFixture(userID string, motivacion, estres float64, daysAgo int) core.EmotionalState {
	at := Now.AddDate(0, 0, -daysAgo)
	return core.EmotionalState{
		UserID:     userID,
		Fecha:      at,
		Energia:    6,
		Motivacion: motivacion,
		Estres:     estres,
		Confianza:  6,
		CreatedAt:  at,
	}
}

// SeedProfile stores a profile and its active revenue goal.
func SeedProfile(t *testing.T, db *storage.DB, p core.Profile) {
	t.Helper()
	ctx := context.Background()
	if err := storage.NewProfileStore(db).Upsert(ctx, &p); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	if _, err := storage.NewGoalStore(db).UpsertRevenueGoal(ctx, p.UserID, p.RevenueObjetivo, p.RevenueActual); err != nil {
		t.Fatalf("seed revenue goal: %v", err)
	}
}

// SeedContacts stores contacts and returns them with their generated IDs.
func SeedContacts(t *testing.T, db *storage.DB, contacts ...core.Contact) []core.Contact {
	t.Helper()
	store := storage.NewContactStore(db)
	for i := range contacts {
		if err := store.Create(context.Background(), &contacts[i]); err != nil {
			t.Fatalf("seed contact %s: %v", contacts[i].Nombre, err)
		}
	}
	return contacts
}

// SeedInteractions stores interactions.
func SeedInteractions(t *testing.T, db *storage.DB, interactions ...core.Interaction) {
	t.Helper()
	store := storage.NewInteractionStore(db)
	for i := range interactions {
		if err := store.Create(context.Background(), &interactions[i]); err != nil {
			t.Fatalf("seed interaction: %v", err)
		}
	}
}

// SeedEmotional stores emotional check-ins.
func SeedEmotional(t *testing.T, db *storage.DB, states ...core.EmotionalState) {
	t.Helper()
	store := storage.NewEmotionalStore(db)
	for i := range states {
		if err := store.Create(context.Background(), &states[i]); err != nil {
			t.Fatalf("seed emotional state: %v", err)
		}
	}
}

// Leads builds n contacts named prefix-1..prefix-n with the same stage and temperature.
func Leads(userID, prefix string, n int, stage core.Stage, temperatura int) []core.Contact {
	out := make([]core.Contact, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, ContactFixture(userID, prefix+"-"+strconv.Itoa(i), stage, temperatura, 1))
	}
	return out
}
