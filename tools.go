//go:build tools

package vitalchart

import (
	_ "github.com/vektra/mockery/v2"
)
