package webhook_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/webhook"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   webhook.Classification
	}{
		{0, webhook.TransientFailure},
		{101, webhook.TransientFailure},
		{200, webhook.Success},
		{201, webhook.Success},
		{204, webhook.Success},
		{299, webhook.Success},
		{301, webhook.TransientFailure},
		{304, webhook.TransientFailure},
		{400, webhook.PermanentFailure},
		{401, webhook.PermanentFailure},
		{404, webhook.PermanentFailure},
		{410, webhook.PermanentFailure},
		{429, webhook.PermanentFailure},
		{499, webhook.PermanentFailure},
		{500, webhook.TransientFailure},
		{502, webhook.TransientFailure},
		{503, webhook.TransientFailure},
		{599, webhook.TransientFailure},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, webhook.Classify(tt.status), "status %d", tt.status)
	}

	assert.True(t, webhook.TransientFailure.Retryable())
	assert.False(t, webhook.PermanentFailure.Retryable())
	assert.False(t, webhook.Success.Retryable())
}
