package updateleadstatus

type Input struct {
	ID string `json:"id"`
	// InterestStatus is the raw decoded value so wrong types can be
	// reported precisely.
	InterestStatus interface{} `json:"interestStatus"`
}

type Output struct {
	Success bool `json:"success"`
}
