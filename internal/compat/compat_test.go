package compat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/athconf/internal/selection"
)

func base() selection.Selection {
	return selection.Selection{
		Problem:     "shock_tube",
		Coordinates: "cartesian",
		EOS:         "adiabatic",
		Flux:        "hlle",
		Order:       "plm",
		Integrator:  "vl2",
		Compiler:    "g++",
		IDLength:    1,
	}
}

func TestValidate_Matrix(t *testing.T) {
	for _, eos := range []string{"adiabatic", "isothermal"} {
		for _, flux := range []string{"hlle", "hllc", "hlld", "roe", "llf"} {
			for _, mhd := range []bool{false, true} {
				sel := base()
				sel.EOS = eos
				sel.Flux = flux
				sel.Magnetic = mhd

				forbidden := (eos == "isothermal" && flux == "hllc") || (flux == "hllc" && mhd)
				err := Validate(sel)
				if forbidden {
					assert.ErrorIs(t, err, ErrIncompatibleOptions, "eos=%s flux=%s mhd=%v", eos, flux, mhd)
				} else {
					assert.NoError(t, err, "eos=%s flux=%s mhd=%v", eos, flux, mhd)
				}
			}
		}
	}
}

func TestValidate_IsothermalHLLC_RegardlessOfOtherFlags(t *testing.T) {
	sel := base()
	sel.EOS = "isothermal"
	sel.Flux = "hllc"
	sel.Special = true
	sel.General = true
	sel.MPI = true
	sel.OpenMP = true
	sel.Debug = true
	sel.Compiler = "cray"

	err := Validate(sel)
	require.Error(t, err)

	var ierr *IncompatibleOptionsError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, "eos=isothermal", ierr.Left)
	assert.Equal(t, "flux=hllc", ierr.Right)
	assert.Contains(t, err.Error(), "isothermal EOS cannot be used with HLLC flux")
}

func TestValidate_HLLCWithMHD(t *testing.T) {
	sel := base()
	sel.Flux = "hllc"
	sel.Magnetic = true

	err := Validate(sel)
	require.ErrorIs(t, err, ErrIncompatibleOptions)
	assert.Contains(t, err.Error(), "HLLC flux cannot be used with MHD")
}

func TestValidate_FirstRuleWins(t *testing.T) {
	sel := base()
	sel.EOS = "isothermal"
	sel.Flux = "hllc"
	sel.Magnetic = true

	var ierr *IncompatibleOptionsError
	require.ErrorAs(t, Validate(sel), &ierr)
	assert.Equal(t, "isothermal EOS cannot be used with HLLC flux", ierr.Reason)
}

func TestRules(t *testing.T) {
	rs := Rules()
	require.Len(t, rs, 2)
	rs[0].Reason = "changed"
	assert.NotEqual(t, "changed", Rules()[0].Reason)
}
