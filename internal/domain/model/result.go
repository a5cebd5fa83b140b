package model

import "encoding/json"

// Result is a solution verdict. The zero value stands for a JSON null, i.e. no
// verdict yet.
type Result string

// Known verdicts. Custom verdict strings are allowed and treated as rejections
// unless a sorter marks them as penalty free.
const (
	ResultNone    Result = ""
	ResultFB      Result = "FB"
	ResultAC      Result = "AC"
	ResultRJ      Result = "RJ"
	ResultPending Result = "?"
	ResultWA      Result = "WA"
	ResultPE      Result = "PE"
	ResultTLE     Result = "TLE"
	ResultMLE     Result = "MLE"
	ResultOLE     Result = "OLE"
	ResultRTE     Result = "RTE"
	ResultNOUT    Result = "NOUT"
	ResultCE      Result = "CE"
	ResultUKE     Result = "UKE"
)

// Accepted reports whether r settles a problem as solved.
func (r Result) Accepted() bool {
	return r == ResultAC || r == ResultFB
}

// MarshalJSON writes ResultNone as null.
func (r Result) MarshalJSON() ([]byte, error) {
	if r == ResultNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(r))
}

// UnmarshalJSON reads null as ResultNone.
func (r *Result) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = ResultNone
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = Result(s)
	return nil
}
