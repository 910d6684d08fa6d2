package store

import (
	"errors"
	"testing"
)

func TestValidateKey(t *testing.T) {
	t.Parallel()

	if err := ValidateKey(""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("ValidateKey(\"\") = %v, want ErrInvalidKey", err)
	}
	if err := ValidateKey("robot_id"); err != nil {
		t.Errorf("ValidateKey(robot_id) = %v, want nil", err)
	}
}
