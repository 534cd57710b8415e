package appctx

import (
	"context"
	"testing"
)

func TestTypedGetters(t *testing.T) {
	ctx := context.Background()
	ctx = Set(ctx, ContextKeyTenantId, "tenant-1")
	ctx = Set(ctx, ContextKeyUserId, 7)
	ctx = Set(ctx, ContextKeyIsAdmin, true)

	if v, ok := GetString(ctx, ContextKeyTenantId); !ok || v != "tenant-1" {
		t.Errorf("GetString = %q, %v", v, ok)
	}
	if v, ok := GetInt(ctx, ContextKeyUserId); !ok || v != 7 {
		t.Errorf("GetInt = %d, %v", v, ok)
	}
	if v, ok := GetBool(ctx, ContextKeyIsAdmin); !ok || !v {
		t.Errorf("GetBool = %v, %v", v, ok)
	}
}

func TestGettersMissOnAbsentOrMistypedValue(t *testing.T) {
	ctx := context.Background()
	if _, ok := GetString(ctx, ContextKeyTenantId); ok {
		t.Error("GetString reported a value on an empty context")
	}
	if _, ok := GetBool(ctx, ContextKeySkipTenantScope); ok {
		t.Error("GetBool reported a value on an empty context")
	}

	// A value of the wrong type must not satisfy a typed getter.
	ctx = Set(ctx, ContextKeyIsAdmin, "yes")
	if _, ok := GetBool(ctx, ContextKeyIsAdmin); ok {
		t.Error("GetBool accepted a string value")
	}
}
