package snapshots

// Job captures one snapshot per run. Scheduled daily after market close.
type Job struct {
	service *Service
}

// NewJob creates a new snapshot job.
func NewJob(service *Service) *Job {
	return &Job{service: service}
}

// Run captures and stores one snapshot.
func (j *Job) Run() error {
	_, err := j.service.CaptureNow()
	return err
}

// Name returns the job name for scheduling and logging.
func (j *Job) Name() string {
	return "exposure_snapshot"
}
