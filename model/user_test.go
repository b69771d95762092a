package model

import (
	"encoding/json"
	"testing"
)

func TestValidRole(t *testing.T) {
	for _, r := range []string{RoleAdmin, RoleReceptionist, RoleDoctor, RolePatient} {
		if !ValidRole(r) {
			t.Errorf("%s should be a valid role", r)
		}
	}
	for _, r := range []string{"", "superuser", "Admin"} {
		if ValidRole(r) {
			t.Errorf("%q should not be a valid role", r)
		}
	}
}

func TestIsStaffRole(t *testing.T) {
	for _, r := range []string{RoleAdmin, RoleReceptionist, RoleDoctor} {
		if !IsStaffRole(r) {
			t.Errorf("%s should be staff", r)
		}
	}
	if IsStaffRole(RolePatient) {
		t.Errorf("patient is not staff")
	}
}

func TestUserJSONHidesCredentials(t *testing.T) {
	u := User{
		FirstName:    "Ana",
		Email:        "ana@example.com",
		Password:     "argon2id$deadbeef",
		PasswordSalt: "cafe",
	}
	raw, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, hidden := range []string{"password", "Password", "PasswordSalt", "failed_attempts"} {
		if _, ok := out[hidden]; ok {
			t.Errorf("field %s must not be serialized", hidden)
		}
	}
	if out["email"] != "ana@example.com" {
		t.Errorf("email should serialize, got %v", out["email"])
	}
}
