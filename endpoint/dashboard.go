package endpoint

import (
	"context"
	"encoding/json"
	"time"

	"github.com/clinicdesk/clinic-api/config"
	"github.com/clinicdesk/clinic-api/model"
	"github.com/clinicdesk/clinic-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	dashboardCacheKey = "dashboard:stats"
	dashboardCacheTTL = 30 * time.Second
)

type doctorDayStats struct {
	DoctorID     uint   `json:"doctorId"`
	DoctorName   string `json:"doctorName"`
	Waiting      int64  `json:"waiting"`
	InProgress   int64  `json:"inProgress"`
	Completed    int64  `json:"completed"`
	Appointments int64  `json:"appointments"`
}

type dashboardStats struct {
	TotalPatients        int64            `json:"totalPatients"`
	ActivePatients       int64            `json:"activePatients"`
	TotalDoctors         int64            `json:"totalDoctors"`
	ActiveDoctors        int64            `json:"activeDoctors"`
	TodayAppointments    int64            `json:"todayAppointments"`
	UpcomingAppointments int64            `json:"upcomingAppointments"`
	TodayQueueTotal      int64            `json:"todayQueueTotal"`
	WaitingNow           int64            `json:"waitingNow"`
	InProgressNow        int64            `json:"inProgressNow"`
	CompletedToday       int64            `json:"completedToday"`
	PerDoctor            []doctorDayStats `json:"perDoctor"`
	RecentActivity       []model.AuditLog `json:"recentActivity"`
	GeneratedAt          time.Time        `json:"generatedAt"`
}

func computeDashboardStats(db *gorm.DB) (dashboardStats, error) {
	now := time.Now()
	today := now.Format("2006-01-02")
	weekOut := now.AddDate(0, 0, 7).Format("2006-01-02")

	stats := dashboardStats{GeneratedAt: now}

	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&stats.TotalPatients, db.Model(&model.Patient{})},
		{&stats.ActivePatients, db.Model(&model.Patient{}).Where("status = ?", model.PatientActive)},
		{&stats.TotalDoctors, db.Model(&model.Doctor{})},
		{&stats.ActiveDoctors, db.Model(&model.Doctor{}).Where("status = ?", model.DoctorActive)},
		{&stats.TodayAppointments, db.Model(&model.Appointment{}).
			Where("appointment_date = ? AND status IN ?", today,
				[]string{model.AppointmentScheduled, model.AppointmentConfirmed})},
		{&stats.UpcomingAppointments, db.Model(&model.Appointment{}).
			Where("appointment_date > ? AND appointment_date <= ? AND status IN ?", today, weekOut,
				[]string{model.AppointmentScheduled, model.AppointmentConfirmed})},
		{&stats.TodayQueueTotal, db.Model(&model.QueueEntry{}).Where("queue_date = ?", today)},
		{&stats.WaitingNow, db.Model(&model.QueueEntry{}).
			Where("queue_date = ? AND status = ?", today, model.QueueWaiting)},
		{&stats.InProgressNow, db.Model(&model.QueueEntry{}).
			Where("queue_date = ? AND status = ?", today, model.QueueInProgress)},
		{&stats.CompletedToday, db.Model(&model.QueueEntry{}).
			Where("queue_date = ? AND status = ?", today, model.QueueCompleted)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return dashboardStats{}, err
		}
	}

	perDoctor, err := computePerDoctorStats(db, today)
	if err != nil {
		return dashboardStats{}, err
	}
	stats.PerDoctor = perDoctor

	if err := db.Model(&model.AuditLog{}).
		Order("created_at DESC").Limit(10).
		Find(&stats.RecentActivity).Error; err != nil {
		return dashboardStats{}, err
	}

	return stats, nil
}

// computePerDoctorStats rolls today's queue and bookings up per active doctor
// with a single conditional aggregation over each table.
func computePerDoctorStats(db *gorm.DB, today string) ([]doctorDayStats, error) {
	var doctors []model.Doctor
	if err := db.Where("status = ?", model.DoctorActive).
		Order("last_name ASC, first_name ASC").
		Find(&doctors).Error; err != nil {
		return nil, err
	}

	type queueRow struct {
		DoctorID   uint
		Waiting    int64
		InProgress int64
		Completed  int64
	}
	var queueRows []queueRow
	err := db.Model(&model.QueueEntry{}).
		Select(`doctor_id,
			SUM(CASE WHEN status = 'waiting' THEN 1 ELSE 0 END) AS waiting,
			SUM(CASE WHEN status = 'in-progress' THEN 1 ELSE 0 END) AS in_progress,
			SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END) AS completed`).
		Where("queue_date = ?", today).
		Group("doctor_id").
		Scan(&queueRows).Error
	if err != nil {
		return nil, err
	}
	queueByDoctor := make(map[uint]queueRow, len(queueRows))
	for _, row := range queueRows {
		queueByDoctor[row.DoctorID] = row
	}

	type apptRow struct {
		DoctorID uint
		Total    int64
	}
	var apptRows []apptRow
	err = db.Model(&model.Appointment{}).
		Select("doctor_id, COUNT(*) AS total").
		Where("appointment_date = ? AND status IN ?", today,
			[]string{model.AppointmentScheduled, model.AppointmentConfirmed}).
		Group("doctor_id").
		Scan(&apptRows).Error
	if err != nil {
		return nil, err
	}
	apptByDoctor := make(map[uint]int64, len(apptRows))
	for _, row := range apptRows {
		apptByDoctor[row.DoctorID] = row.Total
	}

	out := make([]doctorDayStats, 0, len(doctors))
	for _, d := range doctors {
		q := queueByDoctor[d.ID]
		out = append(out, doctorDayStats{
			DoctorID:     d.ID,
			DoctorName:   d.FirstName + " " + d.LastName,
			Waiting:      q.Waiting,
			InProgress:   q.InProgress,
			Completed:    q.Completed,
			Appointments: apptByDoctor[d.ID],
		})
	}
	return out, nil
}

func cachedDashboardStats() (dashboardStats, bool) {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return dashboardStats{}, false
	}
	raw, err := rdb.Get(context.Background(), dashboardCacheKey).Result()
	if err != nil {
		return dashboardStats{}, false
	}
	var stats dashboardStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return dashboardStats{}, false
	}
	return stats, true
}

func cacheDashboardStats(stats dashboardStats) {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	rdb.Set(context.Background(), dashboardCacheKey, raw, dashboardCacheTTL)
}

// GetDashboardStats godoc
// @Summary      Front-desk dashboard statistics
// @Description  Aggregated counts for today's queue and bookings plus recent audit activity. Results are cached briefly.
// @Tags         Dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse{data=object} "Dashboard statistics"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /dashboard/stats [get]
func GetDashboardStats(c *gin.Context) {
	if stats, ok := cachedDashboardStats(); ok {
		util.CallSuccessOK(c, util.APISuccessParams{Msg: "Dashboard statistics", Data: stats})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	stats, err := computeDashboardStats(db)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to compute dashboard statistics", Err: err})
		return
	}

	cacheDashboardStats(stats)
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Dashboard statistics", Data: stats})
}
