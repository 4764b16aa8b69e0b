package metrics

// Operation names shared by the collectors and their callers.
const (
	OpRecordLoad      = "record_load"
	OpTrialExtract    = "trial_extract"
	OpDatasetBuild    = "dataset_build"
	OpModelTrain      = "model_train"
	OpModelLoad       = "model_load"
	OpPrediction      = "prediction"
	OpDeviceSession   = "device_session"
	OpDeviceHandshake = "device_handshake"
	OpMQTTPublish     = "mqtt_publish"
	OpNotification    = "notification"
	OpHistorySave     = "history_save"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Histogram bucket parameters.
const (
	BucketStart1ms = 0.001
	BucketFactor2  = 2
	BucketCount15  = 15
)
