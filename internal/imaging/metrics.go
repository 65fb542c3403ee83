// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ofolio_uploads_processed_total",
		Help: "Uploaded images run through the variant pipeline, by namespace and outcome.",
	}, []string{"namespace", "outcome"})

	variantsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ofolio_image_variants_written_total",
		Help: "Derivative files moved into place, by namespace and variant.",
	}, []string{"namespace", "variant"})
)
