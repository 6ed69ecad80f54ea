package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler"
)

// RosterRepository 读取排班输入：科室医生、班次类型、偏好和不可排班日期
type RosterRepository struct {
	db DB
}

// NewRosterRepository 创建排班输入仓储
func NewRosterRepository(db DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// LoadInput 加载某科室在排班周期内的引擎输入
// 科室不存在时返回 ErrNotFound；科室没有医生时返回空人员列表，由引擎判定为输入无效
func (r *RosterRepository) LoadInput(ctx context.Context, departmentID uuid.UUID, window model.PlanningWindow) (*scheduler.Input, error) {
	if _, err := r.DepartmentName(ctx, departmentID); err != nil {
		return nil, err
	}

	workers, err := r.ListDoctors(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	shifts, err := r.ListShiftTypes(ctx)
	if err != nil {
		return nil, err
	}

	in := &scheduler.Input{
		Workers:    workers,
		ShiftTypes: shifts,
		Window:     window,
	}
	if len(workers) == 0 || window.Days <= 0 {
		return in, nil
	}

	ids := make([]uuid.UUID, len(workers))
	for i, w := range workers {
		ids[i] = w.ID
	}

	if in.Preferences, err = r.ListPreferences(ctx, ids, window); err != nil {
		return nil, err
	}
	if in.Unavailability, err = r.ListUnavailability(ctx, ids, window); err != nil {
		return nil, err
	}
	return in, nil
}

// DepartmentName 查询科室名称
func (r *RosterRepository) DepartmentName(ctx context.Context, departmentID uuid.UUID) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT name FROM departments WHERE id = $1`, departmentID).Scan(&name)
	if err != nil {
		return "", fmt.Errorf("查询科室 %s: %w", departmentID, notFound(err))
	}
	return name, nil
}

// ListDoctors 获取科室内在职医生及其资质标签
func (r *RosterRepository) ListDoctors(ctx context.Context, departmentID uuid.UUID) ([]*model.Worker, error) {
	query := `
		SELECT u.id, u.full_name, u.department_id, COALESCE(u.title, ''),
			COALESCE(array_agg(t.name) FILTER (WHERE t.name IS NOT NULL), '{}')
		FROM users u
		LEFT JOIN user_tags ut ON ut.user_id = u.id
		LEFT JOIN tags t ON t.id = ut.tag_id
		WHERE u.department_id = $1 AND u.role = 'doctor' AND u.is_active = true
		GROUP BY u.id
		ORDER BY u.full_name, u.id
	`

	rows, err := r.db.QueryContext(ctx, query, departmentID)
	if err != nil {
		return nil, fmt.Errorf("查询医生失败: %w", err)
	}
	defer rows.Close()

	var workers []*model.Worker
	for rows.Next() {
		w := &model.Worker{}
		if err := rows.Scan(&w.ID, &w.Name, &w.DepartmentID, &w.Title, pq.Array(&w.Qualifications)); err != nil {
			return nil, fmt.Errorf("扫描医生失败: %w", err)
		}
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

// ListShiftTypes 获取所有班次类型
func (r *RosterRepository) ListShiftTypes(ctx context.Context) ([]*model.ShiftType, error) {
	query := `
		SELECT id, name, start_time, end_time, COALESCE(shift_category, 'day'),
			COALESCE(weight, 1), COALESCE(required_qualification, ''), COALESCE(seats, 0)
		FROM shift_types
		ORDER BY start_time, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询班次类型失败: %w", err)
	}
	defer rows.Close()

	var shifts []*model.ShiftType
	for rows.Next() {
		s, err := scanShiftType(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}

func scanShiftType(row Scanner) (*model.ShiftType, error) {
	s := &model.ShiftType{}
	var category string
	if err := row.Scan(&s.ID, &s.Name, &s.StartTime, &s.EndTime, &category,
		&s.FairnessWeight, &s.RequiredQualification, &s.Seats); err != nil {
		return nil, fmt.Errorf("扫描班次类型失败: %w", err)
	}
	s.Category = model.Category(category)
	return s, nil
}

// ListPreferences 获取周期内的偏好
func (r *RosterRepository) ListPreferences(ctx context.Context, workerIDs []uuid.UUID, window model.PlanningWindow) ([]*model.Preference, error) {
	query := `
		SELECT user_id, to_char(date, 'YYYY-MM-DD'), type, shift_type_id, COALESCE(reason, '')
		FROM preferences
		WHERE user_id = ANY($1) AND date BETWEEN $2 AND $3
		ORDER BY date, created_at
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(uuidStrings(workerIDs)), window.StartDate, window.EndDate())
	if err != nil {
		return nil, fmt.Errorf("查询偏好失败: %w", err)
	}
	defer rows.Close()

	var prefs []*model.Preference
	for rows.Next() {
		p := &model.Preference{}
		var typ string
		var shiftID uuid.NullUUID
		if err := rows.Scan(&p.WorkerID, &p.Date, &typ, &shiftID, &p.Reason); err != nil {
			return nil, fmt.Errorf("扫描偏好失败: %w", err)
		}
		p.Type = model.PreferenceType(typ)
		if shiftID.Valid {
			id := shiftID.UUID
			p.ShiftTypeID = &id
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

// ListUnavailability 获取周期内的请假、外出等不可排班日期
func (r *RosterRepository) ListUnavailability(ctx context.Context, workerIDs []uuid.UUID, window model.PlanningWindow) ([]*model.Unavailability, error) {
	query := `
		SELECT user_id, to_char(date, 'YYYY-MM-DD'), COALESCE(reason, '')
		FROM unavailability
		WHERE user_id = ANY($1) AND date BETWEEN $2 AND $3
		ORDER BY date
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(uuidStrings(workerIDs)), window.StartDate, window.EndDate())
	if err != nil {
		return nil, fmt.Errorf("查询不可排班日期失败: %w", err)
	}
	defer rows.Close()

	var out []*model.Unavailability
	for rows.Next() {
		u := &model.Unavailability{}
		if err := rows.Scan(&u.WorkerID, &u.Date, &u.Reason); err != nil {
			return nil, fmt.Errorf("扫描不可排班日期失败: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
