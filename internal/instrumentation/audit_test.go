package instrumentation

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/courses/internal/logging"
)

func attrMap(attrs []slog.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value.String()
	}
	return m
}

func TestToolInvocation_PrincipalHash(t *testing.T) {
	assert.Empty(t, NewToolInvocation("x").PrincipalHash())
	h := NewToolInvocation("x").WithPrincipal("alice").PrincipalHash()
	assert.True(t, strings.HasPrefix(h, "principal:"))
	assert.Equal(t, logging.AnonymizePrincipal("alice"), h)
}

func TestToolInvocation_Complete(t *testing.T) {
	ti := NewToolInvocation("shopping_add_item").
		WithPrincipal("alice").
		WithTarget("list-1", "")
	require.False(t, ti.StartTime.IsZero())

	ti.Complete(true, nil)
	assert.True(t, ti.Success)
	assert.Equal(t, StatusSuccess, ti.Status())
	assert.Empty(t, ti.Error)

	ti.Complete(false, errors.New("boom"))
	assert.Equal(t, StatusError, ti.Status())
	assert.Equal(t, "boom", ti.Error)
}

func TestToolInvocation_LogAttrs(t *testing.T) {
	ti := NewToolInvocation("shopping_update_item").
		WithPrincipal("alice").
		WithTarget("list-1", "item-9").
		Complete(false, errors.New("not found"))

	attrs := attrMap(ti.LogAttrs())
	assert.Equal(t, "shopping_update_item", attrs["tool"])
	assert.Equal(t, logging.AnonymizePrincipal("alice"), attrs["principal_hash"])
	assert.Equal(t, "list-1", attrs["list_id"])
	assert.Equal(t, "item-9", attrs["item_id"])
	assert.Equal(t, "not found", attrs["error"])
	assert.NotContains(t, attrs, "principal")

	audit := attrMap(ti.LogAuditAttrs())
	assert.Equal(t, "alice", audit["principal"])
	assert.NotContains(t, audit, "principal_hash")
}

func TestToolInvocation_LogAttrs_MinimalFields(t *testing.T) {
	ti := NewToolInvocation("shopping_categories").Complete(true, nil)

	attrs := attrMap(ti.LogAttrs())
	assert.NotContains(t, attrs, "list_id")
	assert.NotContains(t, attrs, "item_id")
	assert.NotContains(t, attrs, "error")
	assert.NotContains(t, attrs, "trace_id")
}

func TestAuditLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	al := NewAuditLogger(logger, AuditLoggingConfig{Enabled: true})
	al.LogToolInvocation(NewToolInvocation("shopping_list_lists").WithPrincipal("alice").Complete(true, nil))
	out := buf.String()
	assert.Contains(t, out, "tool_executed")
	assert.Contains(t, out, logging.AnonymizePrincipal("alice"))
	assert.NotContains(t, out, "principal=alice")

	buf.Reset()
	al = NewAuditLogger(logger, AuditLoggingConfig{Enabled: true, IncludePII: true})
	al.LogToolInvocation(NewToolInvocation("shopping_add_item").WithPrincipal("alice").Complete(false, errors.New("x")))
	out = buf.String()
	assert.Contains(t, out, "tool_failed")
	assert.Contains(t, out, "principal=alice")

	buf.Reset()
	al = NewAuditLogger(logger, AuditLoggingConfig{Enabled: false})
	al.LogToolInvocation(NewToolInvocation("shopping_add_item").Complete(true, nil))
	assert.Empty(t, buf.String())
}
