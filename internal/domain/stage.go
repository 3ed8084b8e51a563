package domain

// QueryStep is one step within an execution stage. READ steps may carry a
// "FROM <identifier>" substep naming the table or stage the step reads.
type QueryStep struct {
	Kind     string   `json:"kind"`
	Substeps []string `json:"substeps,omitempty"`
}

// Stage is one execution stage of a BigQuery query plan. All millisecond
// fields are decimal strings as delivered by the REST API; absent fields stay
// empty. A stage with IsExternal set is a synthesized node standing in for an
// external table read and carries only ID and Name.
type Stage struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Status      string       `json:"status,omitempty"`
	Steps       []*QueryStep `json:"steps,omitempty"`
	InputStages []string     `json:"inputStages,omitempty"`

	StartMs string `json:"startMs,omitempty"`
	EndMs   string `json:"endMs,omitempty"`

	WaitMsAvg    string `json:"waitMsAvg,omitempty"`
	WaitMsMax    string `json:"waitMsMax,omitempty"`
	ReadMsAvg    string `json:"readMsAvg,omitempty"`
	ReadMsMax    string `json:"readMsMax,omitempty"`
	ComputeMsAvg string `json:"computeMsAvg,omitempty"`
	ComputeMsMax string `json:"computeMsMax,omitempty"`
	WriteMsAvg   string `json:"writeMsAvg,omitempty"`
	WriteMsMax   string `json:"writeMsMax,omitempty"`

	RecordsRead               string `json:"recordsRead,omitempty"`
	RecordsWritten            string `json:"recordsWritten,omitempty"`
	ShuffleOutputBytesSpilled string `json:"shuffleOutputBytesSpilled,omitempty"`

	IsExternal bool `json:"isExternal,omitempty"`
}
