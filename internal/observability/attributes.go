package observability

const (
	OwnerAttribute             = "schedule.owner"
	TaskAttribute              = "schedule.task"
	HandlerAttribute           = "schedule.handler"
	OutcomeStatusNameAttribute = "schedule.outcome.status"
	HTTPStatusAttribute        = "http.response.status_code"

	SuccessStatus = "success"
	FailureStatus = "failure"
)

func SuccessOrFailureStatus(succeeded bool) string {
	if succeeded {
		return SuccessStatus
	}
	return FailureStatus
}
