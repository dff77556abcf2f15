package observability

import (
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/aws/aws-xray-sdk-go/xray"
)

// InstrumentAWS attaches X-Ray tracing to every AWS client built from cfg.
func InstrumentAWS(cfg *aws.Config) {
	awsv2.AWSV2Instrumentor(&cfg.APIOptions)
}

// TraceHandler wraps an HTTP handler in an X-Ray segment named after the
// service.
func TraceHandler(serviceName string, next http.Handler) http.Handler {
	return xray.Handler(xray.NewFixedSegmentNamer(serviceName), next)
}
