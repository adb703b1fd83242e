package handlers

import (
	v "github.com/go-ozzo/ozzo-validation/v4"
)

type MapshotBody struct {
	Token   string `json:"token"`
	Chain   string `json:"chain,omitempty"`
	Delay   int    `json:"delay,omitempty"`
	Preview bool   `json:"preview,omitempty"`
}

func (b MapshotBody) Validate() error {
	return v.ValidateStruct(&b,
		v.Field(&b.Token, v.Required, v.Length(3, 128)),
		v.Field(&b.Delay, v.Min(0), v.Max(maxRenderDelay)),
	)
}
