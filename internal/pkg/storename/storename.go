// Package storename derives globally unique store names at signup.
package storename

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/marketbay/commerce-api/internal/core/ports"
)

// GenerateUnique derives a store name from the base hint (the username).
// If the hint is taken, a short random suffix is appended; a collision on
// the suffixed name is effectively impossible but checked once more.
func GenerateUnique(ctx context.Context, base string, stores ports.StoreRepository) (string, error) {
	name := strings.TrimSpace(base)

	taken, err := stores.NameExists(ctx, name)
	if err != nil {
		return "", fmt.Errorf("check store name: %w", err)
	}
	if !taken {
		return name, nil
	}

	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	candidate := fmt.Sprintf("%s_%s", name, suffix)
	taken, err = stores.NameExists(ctx, candidate)
	if err != nil {
		return "", fmt.Errorf("check store name: %w", err)
	}
	if taken {
		return "", fmt.Errorf("store name collision on %q", candidate)
	}
	return candidate, nil
}
