package source

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"meridianhealth.io/losengine/internal/stay"
)

// PostgresSource reads encounter rows from the three source tables: direct
// admissions, ward transfers and fee-basis inpatient episodes. Encounters
// without a discharge (or treatment-end) timestamp are filtered in SQL so
// open admissions never reach the engine.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource opens a connection pool against the encounter database.
func NewPostgresSource(ctx context.Context, url string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping encounter database: %w", err)
	}

	log.Info().Msg("Connected to encounter database")
	return &PostgresSource{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresSource) Close() {
	s.pool.Close()
}

const patientIDsQuery = `
	SELECT patient_id FROM inpatient_admissions WHERE discharge_time IS NOT NULL
	UNION
	SELECT patient_id FROM fee_inpatient_episodes WHERE treatment_to IS NOT NULL
	ORDER BY 1`

const admissionsQuery = `
	SELECT stay_id, admit_time, discharge_time, admitting_specialty
	FROM inpatient_admissions
	WHERE patient_id = $1 AND discharge_time IS NOT NULL`

const transfersQuery = `
	SELECT t.stay_id, t.transfer_time, t.specialty
	FROM ward_transfers t
	JOIN inpatient_admissions a ON a.stay_id = t.stay_id
	WHERE t.patient_id = $1 AND a.discharge_time IS NOT NULL`

const feeEpisodesQuery = `
	SELECT treatment_from, treatment_to, purpose_of_visit
	FROM fee_inpatient_episodes
	WHERE patient_id = $1 AND treatment_to IS NOT NULL`

// PatientIDs returns every patient with at least one closed encounter.
func (s *PostgresSource) PatientIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, patientIDsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query patient ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan patient id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read patient ids: %w", err)
	}

	log.Info().Int("patients", len(ids)).Msg("Loaded patient cohort")
	return ids, nil
}

// PatientEvents returns one patient's raw events across all three tables.
func (s *PostgresSource) PatientEvents(ctx context.Context, patientID string) ([]stay.RawEvent, error) {
	var events []stay.RawEvent

	rows, err := s.pool.Query(ctx, admissionsQuery, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query admissions for %s: %w", patientID, err)
	}
	for rows.Next() {
		ev := stay.RawEvent{PatientID: patientID, Kind: stay.KindAdmission}
		if err := rows.Scan(&ev.StayKey, &ev.Begin, &ev.End, &ev.Specialty); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan admission for %s: %w", patientID, err)
		}
		events = append(events, ev)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read admissions for %s: %w", patientID, err)
	}

	rows, err = s.pool.Query(ctx, transfersQuery, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers for %s: %w", patientID, err)
	}
	for rows.Next() {
		ev := stay.RawEvent{PatientID: patientID, Kind: stay.KindTransfer}
		if err := rows.Scan(&ev.StayKey, &ev.Begin, &ev.Specialty); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan transfer for %s: %w", patientID, err)
		}
		events = append(events, ev)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transfers for %s: %w", patientID, err)
	}

	rows, err = s.pool.Query(ctx, feeEpisodesQuery, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fee episodes for %s: %w", patientID, err)
	}
	for rows.Next() {
		ev := stay.RawEvent{PatientID: patientID, Kind: stay.KindFeeBasis}
		if err := rows.Scan(&ev.Begin, &ev.End, &ev.Specialty); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan fee episode for %s: %w", patientID, err)
		}
		events = append(events, ev)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fee episodes for %s: %w", patientID, err)
	}

	return events, nil
}
