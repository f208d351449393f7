package session

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

func TestBuildListQuery(t *testing.T) {
	t.Parallel()

	patientID := uuid.New()
	caregiverID := uuid.New()
	completed := domain.SessionStatusCompleted

	tests := []struct {
		name         string
		filter       domain.SessionFilter
		wantContains []string
		wantArgs     []any
	}{
		{
			name:         "no filter uses defaults",
			filter:       domain.SessionFilter{},
			wantContains: []string{"ORDER BY created_at DESC, id DESC", "LIMIT 100"},
			wantArgs:     nil,
		},
		{
			name:         "patient and status",
			filter:       domain.SessionFilter{PatientID: &patientID, Status: &completed, OldestFirst: true},
			wantContains: []string{"patient_id = $1", "status = $2", "ORDER BY created_at ASC, id ASC"},
			wantArgs:     []any{patientID, "completado"},
		},
		{
			name:         "caregiver active only",
			filter:       domain.SessionFilter{CaregiverID: &caregiverID, ActiveOnly: true, Limit: 5},
			wantContains: []string{"caregiver_id = $1", "active = $2", "LIMIT 5"},
			wantArgs:     []any{caregiverID, true},
		},
		{
			name:         "limit is clamped",
			filter:       domain.SessionFilter{Limit: 10_000},
			wantContains: []string{"LIMIT 500"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			query, args, err := buildListQuery(tt.filter)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(query, "SELECT id, patient_id"), query)
			for _, want := range tt.wantContains {
				assert.Contains(t, query, want)
			}
			if tt.wantArgs != nil {
				assert.Equal(t, tt.wantArgs, args)
			} else {
				assert.Empty(t, args)
			}
		})
	}
}
