// Package dto holds the JSON shapes exchanged with devices and admin clients.
package dto

// Device error codes carried in Envelope.Emsg.
const (
	EmsgUnauthorized = 1
	EmsgNotFound     = 2
	EmsgConflict     = 3
	EmsgValidation   = 4
	EmsgUpstream     = 5
)

// Envelope wraps every device endpoint response.
type Envelope struct {
	Scs    bool `json:"scs"`
	Res    any  `json:"res,omitempty"`
	Emsg   int  `json:"emsg,omitempty"`
	Detail any  `json:"detail,omitempty"`
}

func OK(res any) Envelope {
	return Envelope{Scs: true, Res: res}
}

func Fail(emsg int, detail any) Envelope {
	return Envelope{Scs: false, Emsg: emsg, Detail: detail}
}
