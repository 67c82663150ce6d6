package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"KantinPos/app/database"
	"KantinPos/app/models"
)

// EmployeeService handles employees, authentication and attendance
type EmployeeService struct {
	db     *gorm.DB
	logger *LoggerService
}

// NewEmployeeService creates a new employee service
func NewEmployeeService(logger *LoggerService) *EmployeeService {
	return &EmployeeService{
		db:     database.GetDB(),
		logger: logger,
	}
}

// Employee Management

// GetEmployees gets all employees (active and inactive)
func (s *EmployeeService) GetEmployees() ([]models.Employee, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	var employees []models.Employee
	err := s.db.Find(&employees).Error
	return employees, err
}

// GetEmployee gets an employee by ID
func (s *EmployeeService) GetEmployee(id uint) (*models.Employee, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	var employee models.Employee
	err := s.db.First(&employee, id).Error
	return &employee, err
}

// CreateEmployee creates a new employee with a hashed password and PIN
func (s *EmployeeService) CreateEmployee(employee *models.Employee, password string, pin string) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) < 4 {
		return fmt.Errorf("password must be at least 4 characters")
	}
	if pin == "" {
		return fmt.Errorf("PIN is required")
	}
	if len(pin) < 4 {
		return fmt.Errorf("PIN must be at least 4 digits")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	employee.Password = string(hashedPassword)

	hashedPIN, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash PIN: %w", err)
	}
	employee.PIN = string(hashedPIN)

	return s.db.Create(employee).Error
}

// UpdateEmployee updates an employee
func (s *EmployeeService) UpdateEmployee(employee *models.Employee) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.Save(employee).Error
}

// UpdateEmployeePassword updates an employee's password
func (s *EmployeeService) UpdateEmployeePassword(employeeID uint, newPassword string) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if len(newPassword) < 4 {
		return fmt.Errorf("password must be at least 4 characters")
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.db.Model(&models.Employee{}).Where("id = ?", employeeID).
		Update("password", string(hashedPassword)).Error
}

// UpdateEmployeePIN updates an employee's PIN
func (s *EmployeeService) UpdateEmployeePIN(employeeID uint, newPIN string) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if len(newPIN) < 4 {
		return fmt.Errorf("PIN must be at least 4 digits")
	}
	hashedPIN, err := bcrypt.GenerateFromPassword([]byte(newPIN), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.db.Model(&models.Employee{}).Where("id = ?", employeeID).
		Update("pin", string(hashedPIN)).Error
}

// DeactivateEmployee deactivates an employee without deleting history
func (s *EmployeeService) DeactivateEmployee(id uint) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.Model(&models.Employee{}).Where("id = ?", id).
		Update("is_active", false).Error
}

// Authentication

// AuthenticateEmployee authenticates an employee by username and password
func (s *EmployeeService) AuthenticateEmployee(username, password string) (*models.Employee, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	var employee models.Employee
	if err := s.db.Where("username = ? AND is_active = ?", username, true).First(&employee).Error; err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(employee.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	now := time.Now()
	employee.LastLoginAt = &now
	s.db.Save(&employee)

	return &employee, nil
}

// AuthenticateEmployeeByPIN authenticates an employee by PIN. PINs are
// hashed, so every active employee's hash is compared in turn.
func (s *EmployeeService) AuthenticateEmployeeByPIN(pin string) (*models.Employee, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	var employees []models.Employee
	if err := s.db.Where("is_active = ?", true).Find(&employees).Error; err != nil {
		return nil, err
	}

	for _, employee := range employees {
		if err := bcrypt.CompareHashAndPassword([]byte(employee.PIN), []byte(pin)); err == nil {
			now := time.Now()
			employee.LastLoginAt = &now
			s.db.Save(&employee)
			return &employee, nil
		}
	}

	return nil, fmt.Errorf("invalid PIN")
}

// Attendance

// ClockIn opens an attendance record for a shift. An employee can only
// have one open shift at a time.
func (s *EmployeeService) ClockIn(employeeID uint, notes string) (*models.Attendance, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var open int64
	s.db.Model(&models.Attendance{}).
		Where("employee_id = ? AND clock_out IS NULL", employeeID).
		Count(&open)
	if open > 0 {
		return nil, fmt.Errorf("employee already clocked in")
	}

	now := time.Now()
	attendance := &models.Attendance{
		EmployeeID: employeeID,
		ClockIn:    now,
		Shift:      shiftForHour(now.Hour()),
		Notes:      notes,
	}
	if err := s.db.Create(attendance).Error; err != nil {
		return nil, err
	}
	return attendance, nil
}

// ClockOut closes the employee's open attendance record.
func (s *EmployeeService) ClockOut(employeeID uint, notes string) (*models.Attendance, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var attendance models.Attendance
	err := s.db.Where("employee_id = ? AND clock_out IS NULL", employeeID).
		Order("clock_in DESC").First(&attendance).Error
	if err != nil {
		return nil, fmt.Errorf("no open shift for employee %d", employeeID)
	}

	now := time.Now()
	attendance.ClockOut = &now
	if notes != "" {
		attendance.Notes = notes
	}
	if err := s.db.Save(&attendance).Error; err != nil {
		return nil, err
	}
	return &attendance, nil
}

// GetOpenAttendance returns the employee's open shift, or nil.
func (s *EmployeeService) GetOpenAttendance(employeeID uint) (*models.Attendance, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	var attendance models.Attendance
	err := s.db.Where("employee_id = ? AND clock_out IS NULL", employeeID).
		Order("clock_in DESC").First(&attendance).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &attendance, nil
}

// GetAttendanceHistory returns attendance records in [start, end).
func (s *EmployeeService) GetAttendanceHistory(employeeID uint, start, end time.Time) ([]models.Attendance, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	var records []models.Attendance
	query := s.db.Preload("Employee").
		Where("clock_in >= ? AND clock_in < ?", start, end).
		Order("clock_in DESC")
	if employeeID != 0 {
		query = query.Where("employee_id = ?", employeeID)
	}
	err := query.Find(&records).Error
	return records, err
}

// shiftForHour maps a clock-in hour to its named shift.
func shiftForHour(hour int) string {
	switch {
	case hour < 11:
		return "pagi"
	case hour < 17:
		return "siang"
	default:
		return "malam"
	}
}

// Session Management

// CreateSession creates a new session for an employee
func (s *EmployeeService) CreateSession(employeeID uint, deviceInfo, ipAddress string) (*models.Session, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, err
	}
	token := hex.EncodeToString(tokenBytes)

	session := &models.Session{
		EmployeeID: employeeID,
		Token:      token,
		DeviceInfo: deviceInfo,
		IPAddress:  ipAddress,
		ExpiresAt:  time.Now().Add(24 * time.Hour),
	}
	if err := s.db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// ValidateSession validates a session token and returns its employee
func (s *EmployeeService) ValidateSession(token string) (*models.Employee, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	var session models.Session
	err := s.db.Preload("Employee").
		Where("token = ? AND expires_at > ?", token, time.Now()).
		First(&session).Error
	if err != nil {
		return nil, fmt.Errorf("invalid or expired session")
	}
	if session.Employee == nil || !session.Employee.IsActive {
		return nil, fmt.Errorf("invalid or expired session")
	}
	return session.Employee, nil
}

// RevokeSession revokes a session
func (s *EmployeeService) RevokeSession(token string) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.Where("token = ?", token).Delete(&models.Session{}).Error
}

// CleanExpiredSessions removes expired sessions
func (s *EmployeeService) CleanExpiredSessions() error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.Where("expires_at < ?", time.Now()).Delete(&models.Session{}).Error
}

// Audit Logging

// LogAudit records an auditable action. Failures are logged, never fatal.
func (s *EmployeeService) LogAudit(employeeID uint, action, entity string, entityID uint, oldValue, newValue string) {
	if s.db == nil {
		return
	}
	entry := models.AuditLog{
		EmployeeID: employeeID,
		Action:     action,
		Entity:     entity,
		EntityID:   entityID,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	if err := s.db.Create(&entry).Error; err != nil && s.logger != nil {
		s.logger.LogWarning("Failed to write audit log", err.Error())
	}
}

// GetAuditLogs returns audit entries, optionally filtered by employee or entity
func (s *EmployeeService) GetAuditLogs(employeeID uint, entity string, limit, offset int) ([]models.AuditLog, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 100
	}
	query := s.db.Preload("Employee").Order("created_at DESC").Limit(limit).Offset(offset)
	if employeeID != 0 {
		query = query.Where("employee_id = ?", employeeID)
	}
	if entity != "" {
		query = query.Where("entity = ?", entity)
	}
	var logs []models.AuditLog
	err := query.Find(&logs).Error
	return logs, err
}
