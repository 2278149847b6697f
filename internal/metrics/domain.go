package metrics

import "time"

// RecordOperation counts one narrator operation (narrative, upload_url,
// image_url, summary, grammar) by outcome.
func RecordOperation(operation string, success bool) {
	counter(OperationsTotal, map[string]string{
		"operation": operation,
		"status":    statusLabel(success),
	})
}

// RecordOperationError counts a failed operation by error kind.
func RecordOperationError(operation, kind string) {
	counter(OperationErrorsTotal, map[string]string{
		"operation": operation,
		"kind":      kind,
	})
}

// RecordModelInvocation records one model call and its latency.
func RecordModelInvocation(driver, operation string, success bool, duration time.Duration) {
	counter(ModelInvocationsTotal, map[string]string{
		"driver":    driver,
		"operation": operation,
		"status":    statusLabel(success),
	})
	histogram(ModelInvocationDurMs, duration, map[string]string{
		"driver":    driver,
		"operation": operation,
	})
}

// RecordStorageOperation records a presign or read against the object store.
func RecordStorageOperation(operation string, success bool) {
	counter(StorageOperationsTotal, map[string]string{
		"operation": operation,
		"status":    statusLabel(success),
	})
}

// RecordImageResolution records one image source resolution.
func RecordImageResolution(source string, success bool) {
	counter(ImageResolutionsTotal, map[string]string{
		"source": source,
		"status": statusLabel(success),
	})
}
