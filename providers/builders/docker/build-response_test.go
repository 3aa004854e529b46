package docker

import (
	"strings"
	"testing"

	"gotest.tools/assert"
)

func TestConvertOutput(t *testing.T) {
	t.Run("successful build", func(t *testing.T) {
		stream := strings.Join([]string{
			`{"stream":"Step 1/2 : FROM apache/airflow:2.9.0\n"}`,
			`{"status":"Pulling fs layer","id":"a1b2"}`,
			`{"status":"Downloading","progress":"[==>   ] 1MB/4MB","id":"a1b2"}`,
			`{"stream":" ---\u003e 3f57d9401f8d\n"}`,
			``,
			`{"aux":{"ID":"sha256:3f57d9401f8d"}}`,
			`{"stream":"Successfully tagged airflow-scheduler-ecr:latest\n"}`,
		}, "\n")

		out, err := ConvertOutput(strings.NewReader(stream))
		assert.NilError(t, err)
		assert.Equal(t, out.ImageID, "sha256:3f57d9401f8d")
		assert.Equal(t, out.ErrorMessage, "")
		rendered := string(out.Rendered)
		assert.Assert(t, strings.Contains(rendered, "Step 1/2 : FROM apache/airflow:2.9.0"))
		assert.Assert(t, strings.Contains(rendered, "a1b2: "))
		assert.Assert(t, strings.Contains(rendered, "Successfully tagged airflow-scheduler-ecr:latest"))
	})

	t.Run("first error is kept", func(t *testing.T) {
		stream := strings.Join([]string{
			`{"stream":"Step 2/2 : RUN pip install nope\n"}`,
			`{"errorDetail":{"message":"The command '/bin/sh -c pip install nope' returned a non-zero code: 1"},"error":"The command '/bin/sh -c pip install nope' returned a non-zero code: 1"}`,
			`{"error":"second"}`,
		}, "\n")

		out, err := ConvertOutput(strings.NewReader(stream))
		assert.NilError(t, err)
		assert.Equal(t, out.ErrorMessage, "The command '/bin/sh -c pip install nope' returned a non-zero code: 1")
		assert.Assert(t, strings.Contains(string(out.Rendered), errorPrefix))
	})

	t.Run("garbage in stream", func(t *testing.T) {
		_, err := ConvertOutput(strings.NewReader("not json"))
		assert.Assert(t, err != nil)
	})
}
