package services

import (
	"testing"
	"time"

	"KantinPos/app/models"
)

func TestCreateEmployeeHashesCredentials(t *testing.T) {
	db := newTestDB(t)
	svc := &EmployeeService{db: db}

	employee := &models.Employee{Name: "Budi", Username: "budi", Role: "cashier", IsActive: true}
	if err := svc.CreateEmployee(employee, "rahasia", "1234"); err != nil {
		t.Fatalf("CreateEmployee() error = %v", err)
	}

	var stored models.Employee
	db.First(&stored, employee.ID)
	if stored.Password == "rahasia" || stored.Password == "" {
		t.Error("password stored in plain text or empty")
	}
	if stored.PIN == "1234" || stored.PIN == "" {
		t.Error("PIN stored in plain text or empty")
	}
}

func TestCreateEmployeeValidation(t *testing.T) {
	svc := &EmployeeService{db: newTestDB(t)}

	employee := &models.Employee{Name: "X", Username: "x"}
	if err := svc.CreateEmployee(employee, "", "1234"); err == nil {
		t.Error("empty password should fail")
	}
	if err := svc.CreateEmployee(employee, "abc", "1234"); err == nil {
		t.Error("short password should fail")
	}
	if err := svc.CreateEmployee(employee, "rahasia", "12"); err == nil {
		t.Error("short PIN should fail")
	}
}

func TestAuthenticateEmployee(t *testing.T) {
	db := newTestDB(t)
	svc := &EmployeeService{db: db}

	employee := &models.Employee{Name: "Budi", Username: "budi", Role: "cashier", IsActive: true}
	if err := svc.CreateEmployee(employee, "rahasia", "1234"); err != nil {
		t.Fatalf("CreateEmployee() error = %v", err)
	}

	got, err := svc.AuthenticateEmployee("budi", "rahasia")
	if err != nil {
		t.Fatalf("AuthenticateEmployee() error = %v", err)
	}
	if got.Username != "budi" {
		t.Errorf("authenticated %q, want budi", got.Username)
	}
	if got.LastLoginAt == nil {
		t.Error("LastLoginAt not updated")
	}

	if _, err := svc.AuthenticateEmployee("budi", "salah"); err == nil {
		t.Error("wrong password should fail")
	}
	if _, err := svc.AuthenticateEmployee("siapa", "rahasia"); err == nil {
		t.Error("unknown user should fail")
	}
}

func TestAuthenticateEmployeeByPIN(t *testing.T) {
	db := newTestDB(t)
	svc := &EmployeeService{db: db}

	budi := &models.Employee{Name: "Budi", Username: "budi", Role: "cashier", IsActive: true}
	sari := &models.Employee{Name: "Sari", Username: "sari", Role: "admin", IsActive: true}
	if err := svc.CreateEmployee(budi, "rahasia", "1234"); err != nil {
		t.Fatalf("CreateEmployee() error = %v", err)
	}
	if err := svc.CreateEmployee(sari, "rahasia", "9876"); err != nil {
		t.Fatalf("CreateEmployee() error = %v", err)
	}

	got, err := svc.AuthenticateEmployeeByPIN("9876")
	if err != nil {
		t.Fatalf("AuthenticateEmployeeByPIN() error = %v", err)
	}
	if got.Username != "sari" {
		t.Errorf("authenticated %q, want sari", got.Username)
	}

	if _, err := svc.AuthenticateEmployeeByPIN("0000"); err == nil {
		t.Error("unknown PIN should fail")
	}
}

func TestClockInAndOut(t *testing.T) {
	db := newTestDB(t)
	svc := &EmployeeService{db: db}

	attendance, err := svc.ClockIn(3, "")
	if err != nil {
		t.Fatalf("ClockIn() error = %v", err)
	}
	if attendance.Shift == "" {
		t.Error("shift not assigned")
	}

	// Double clock-in is rejected.
	if _, err := svc.ClockIn(3, ""); err == nil {
		t.Error("second ClockIn should fail")
	}

	open, err := svc.GetOpenAttendance(3)
	if err != nil {
		t.Fatalf("GetOpenAttendance() error = %v", err)
	}
	if open == nil || open.ID != attendance.ID {
		t.Fatal("open attendance not found")
	}

	closed, err := svc.ClockOut(3, "selesai")
	if err != nil {
		t.Fatalf("ClockOut() error = %v", err)
	}
	if closed.ClockOut == nil {
		t.Error("ClockOut timestamp not set")
	}
	if closed.Notes != "selesai" {
		t.Errorf("notes = %q, want selesai", closed.Notes)
	}

	open, err = svc.GetOpenAttendance(3)
	if err != nil {
		t.Fatalf("GetOpenAttendance() error = %v", err)
	}
	if open != nil {
		t.Error("attendance still open after clock out")
	}

	// No open shift left to close.
	if _, err := svc.ClockOut(3, ""); err == nil {
		t.Error("ClockOut without open shift should fail")
	}
}

func TestShiftForHour(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{6, "pagi"},
		{10, "pagi"},
		{11, "siang"},
		{16, "siang"},
		{17, "malam"},
		{22, "malam"},
	}
	for _, tt := range tests {
		if got := shiftForHour(tt.hour); got != tt.want {
			t.Errorf("shiftForHour(%d) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}

func TestSessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := &EmployeeService{db: db}

	employee := &models.Employee{Name: "Budi", Username: "budi", Role: "cashier", IsActive: true}
	if err := svc.CreateEmployee(employee, "rahasia", "1234"); err != nil {
		t.Fatalf("CreateEmployee() error = %v", err)
	}

	session, err := svc.CreateSession(employee.ID, "tablet kasir", "192.168.1.20")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if len(session.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(session.Token))
	}

	got, err := svc.ValidateSession(session.Token)
	if err != nil {
		t.Fatalf("ValidateSession() error = %v", err)
	}
	if got.ID != employee.ID {
		t.Errorf("session resolved to employee %d, want %d", got.ID, employee.ID)
	}

	if err := svc.RevokeSession(session.Token); err != nil {
		t.Fatalf("RevokeSession() error = %v", err)
	}
	if _, err := svc.ValidateSession(session.Token); err == nil {
		t.Error("revoked session should not validate")
	}

	// Expired sessions are invalid and cleanable.
	expired := models.Session{EmployeeID: employee.ID, Token: "tok-expired", ExpiresAt: time.Now().Add(-time.Hour)}
	if err := db.Create(&expired).Error; err != nil {
		t.Fatalf("seed expired session: %v", err)
	}
	if _, err := svc.ValidateSession("tok-expired"); err == nil {
		t.Error("expired session should not validate")
	}
	if err := svc.CleanExpiredSessions(); err != nil {
		t.Fatalf("CleanExpiredSessions() error = %v", err)
	}
	var count int64
	db.Model(&models.Session{}).Count(&count)
	if count != 0 {
		t.Errorf("%d sessions left after cleanup, want 0", count)
	}
}
