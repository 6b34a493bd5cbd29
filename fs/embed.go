// Package appfs embeds the files the binaries ship with.
package appfs

import "embed"

//go:embed migrations/*.sql seeds/*.yaml templates/email/*
var FS embed.FS
