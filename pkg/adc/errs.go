package adc

import "errors"

var (
	// ErrNotReady indicates the converter did not signal completion within
	// its latency bound.
	ErrNotReady = errors.New("adc: conversion not ready")

	// ErrConversion indicates the converter reported a fault for this sample.
	ErrConversion = errors.New("adc: conversion fault")
)
