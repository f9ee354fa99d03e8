package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/pubconcept/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// New / Wrap
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"missing abstract", errors.CodeMissingAbstract, "record 17 has no abstract"},
		{"invalid param", errors.CodeInvalidParam, "input path must not be empty"},
		{"overlap", errors.CodeOverlappingSpans, "spans [0,5) and [3,8) overlap"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
		})
	}
}

func TestNewf_FormatsMessage(t *testing.T) {
	ae := errors.Newf(errors.CodeRecordCountMismatch, "expected %d, got %d", 3, 2)
	assert.Equal(t, "expected 3, got 2", ae.Message)
}

func TestWrap_NilErrReturnsNil(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "ignored"))
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	root := fmt.Errorf("connection refused")
	ae := errors.Wrap(root, errors.CodeSinkWriteFailed, "publish failed")

	require.NotNil(t, ae)
	assert.Equal(t, root, ae.Unwrap())
	assert.True(t, stderrors.Is(ae, root))
}

func TestWrap_PreservesOriginalCodeWhenCodeUnknown(t *testing.T) {
	inner := errors.New(errors.CodeMissingAbstract, "no abstract")
	outer := errors.Wrap(inner, errors.CodeUnknown, "reading record")

	assert.Equal(t, errors.CodeMissingAbstract, outer.Code)
}

func TestWrap_OverridesCodeWhenExplicit(t *testing.T) {
	inner := errors.New(errors.CodeDatabaseError, "db down")
	outer := errors.Wrap(inner, errors.CodeSinkWriteFailed, "sink failed")

	assert.Equal(t, errors.CodeSinkWriteFailed, outer.Code)
	assert.True(t, errors.IsCode(outer, errors.CodeDatabaseError))
}

// ─────────────────────────────────────────────────────────────────────────────
// Error() formatting and fluent builders
// ─────────────────────────────────────────────────────────────────────────────

func TestError_Format(t *testing.T) {
	ae := errors.New(errors.CodeMissingAbstract, "no abstract")
	assert.Equal(t, "[REC_002] no abstract", ae.Error())

	withDetail := ae.WithDetail("pmid=42")
	assert.Equal(t, "[REC_002] no abstract: pmid=42", withDetail.Error())
	assert.Empty(t, ae.Detail, "WithDetail must not mutate the receiver")
}

func TestWithDetail_NilReceiverReturnsNil(t *testing.T) {
	var ae *errors.AppError
	assert.Nil(t, ae.WithDetail("x"))
	assert.Nil(t, ae.WithCause(fmt.Errorf("x")))
}

func TestWithCause_AttachesCause(t *testing.T) {
	cause := fmt.Errorf("eof")
	ae := errors.New(errors.CodeRecordReadFailed, "read failed").WithCause(cause)
	assert.True(t, stderrors.Is(ae, cause))
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_NestedChain(t *testing.T) {
	inner := errors.New(errors.CodeOverlappingSpans, "overlap")
	wrapped := fmt.Errorf("splice: %w", inner)

	assert.True(t, errors.IsCode(wrapped, errors.CodeOverlappingSpans))
	assert.False(t, errors.IsCode(wrapped, errors.CodeInternal))
	assert.False(t, errors.IsCode(nil, errors.CodeInternal))
	assert.False(t, errors.IsCode(fmt.Errorf("plain"), errors.CodeInternal))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, errors.IsNotFound(errors.NotFound("x")))
	assert.True(t, errors.IsNotFound(errors.New(errors.ErrCodeDescriptorNotFound, "D1")))
	assert.False(t, errors.IsNotFound(errors.Internal("x")))
}

func TestIsStructural(t *testing.T) {
	assert.True(t, errors.IsStructural(errors.New(errors.CodeMissingAbstract, "x")))
	assert.True(t, errors.IsStructural(fmt.Errorf("w: %w", errors.New(errors.CodeOverlappingSpans, "x"))))
	assert.False(t, errors.IsStructural(errors.New(errors.CodeRecordCountMismatch, "x")))
	assert.False(t, errors.IsStructural(fmt.Errorf("io")))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(fmt.Errorf("plain")))
	assert.Equal(t, errors.CodeConflict, errors.GetCode(fmt.Errorf("w: %w", errors.Conflict("c"))))
}

func TestConvenienceFactories_ReturnCorrectCode(t *testing.T) {
	cases := []struct {
		name string
		err  *errors.AppError
		code errors.ErrorCode
	}{
		{"NotFound", errors.NotFound("m"), errors.CodeNotFound},
		{"InvalidParam", errors.InvalidParam("m"), errors.CodeInvalidParam},
		{"Internal", errors.Internal("m"), errors.CodeInternal},
		{"Conflict", errors.Conflict("m"), errors.CodeConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, tc.err.Code)
			assert.Equal(t, "m", tc.err.Message)
		})
	}
}

func TestStdlib_ErrorsAs_DeepChain(t *testing.T) {
	inner := errors.New(errors.CodeDescriptorInvalid, "bad ui")
	wrapped := fmt.Errorf("l2: %w", fmt.Errorf("l1: %w", inner))

	var ae *errors.AppError
	require.True(t, errors.As(wrapped, &ae))
	assert.Equal(t, errors.CodeDescriptorInvalid, ae.Code)
}

//Personal.AI order the ending
