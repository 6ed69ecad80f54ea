package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Simon6088/Doctor-Scheduling-System/internal/database"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
)

// ScheduleStatus 排班记录状态
type ScheduleStatus string

const (
	StatusDraft     ScheduleStatus = "draft"
	StatusPublished ScheduleStatus = "published"
)

// ScheduleRecord 排班记录
type ScheduleRecord struct {
	ID           uuid.UUID      `json:"id"`
	DepartmentID uuid.UUID      `json:"department_id"`
	DoctorID     uuid.UUID      `json:"doctor_id"`
	DoctorName   string         `json:"doctor_name"`
	ShiftTypeID  uuid.UUID      `json:"shift_type_id"`
	ShiftName    string         `json:"shift_name"`
	Date         string         `json:"date"`
	Status       ScheduleStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ScheduleRepository 排班记录仓储
type ScheduleRepository struct {
	db TxDB
}

// NewScheduleRepository 创建排班记录仓储
func NewScheduleRepository(db TxDB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// SaveDraft 在一个事务中保存草稿，已存在的 (日期, 班次, 医生) 记录跳过
// 返回实际新增的条数
func (r *ScheduleRepository) SaveDraft(ctx context.Context, departmentID uuid.UUID, assignments []*model.Assignment) (int, error) {
	query := `
		INSERT INTO schedules (id, department_id, doctor_id, shift_type_id, date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (doctor_id, shift_type_id, date) DO NOTHING
	`

	inserted := 0
	err := r.db.Transaction(ctx, func(tx database.Querier) error {
		now := time.Now()
		for _, a := range assignments {
			res, err := tx.ExecContext(ctx, query,
				uuid.New(), departmentID, a.WorkerID, a.ShiftTypeID, a.Date, StatusDraft, now)
			if err != nil {
				return fmt.Errorf("保存排班草稿失败: %w", err)
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// Publish 将周期内的草稿发布
func (r *ScheduleRepository) Publish(ctx context.Context, departmentID uuid.UUID, startDate, endDate string) (int64, error) {
	query := `
		UPDATE schedules SET status = $1, updated_at = NOW()
		WHERE department_id = $2 AND date BETWEEN $3 AND $4 AND status = $5
	`

	res, err := r.db.ExecContext(ctx, query, StatusPublished, departmentID, startDate, endDate, StatusDraft)
	if err != nil {
		return 0, fmt.Errorf("发布排班失败: %w", err)
	}
	return res.RowsAffected()
}

// ListByRange 查询周期内的排班记录，status 为空表示不限
func (r *ScheduleRepository) ListByRange(ctx context.Context, departmentID uuid.UUID, startDate, endDate string, status ScheduleStatus) ([]*ScheduleRecord, error) {
	query := `
		SELECT s.id, s.department_id, s.doctor_id, u.full_name, s.shift_type_id, st.name,
			to_char(s.date, 'YYYY-MM-DD'), s.status, s.created_at
		FROM schedules s
		JOIN users u ON u.id = s.doctor_id
		JOIN shift_types st ON st.id = s.shift_type_id
		WHERE s.department_id = $1 AND s.date BETWEEN $2 AND $3
			AND ($4 = '' OR s.status = $4)
		ORDER BY s.date, st.start_time, u.full_name
	`

	rows, err := r.db.QueryContext(ctx, query, departmentID, startDate, endDate, string(status))
	if err != nil {
		return nil, fmt.Errorf("查询排班记录失败: %w", err)
	}
	defer rows.Close()

	var records []*ScheduleRecord
	for rows.Next() {
		rec := &ScheduleRecord{}
		var st string
		if err := rows.Scan(&rec.ID, &rec.DepartmentID, &rec.DoctorID, &rec.DoctorName,
			&rec.ShiftTypeID, &rec.ShiftName, &rec.Date, &st, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("扫描排班记录失败: %w", err)
		}
		rec.Status = ScheduleStatus(st)
		records = append(records, rec)
	}
	return records, rows.Err()
}
