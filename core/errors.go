// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidContentItem indicates a ContentItem failed validation.
	ErrInvalidContentItem = errors.New("invalid content item")

	// ErrInvalidCluster indicates a Cluster failed validation.
	ErrInvalidCluster = errors.New("invalid cluster")

	// ErrInvalidURL indicates a URL is missing or not http(s).
	ErrInvalidURL = errors.New("invalid url")

	// ErrDuplicateContent indicates the owner already saved this URL.
	ErrDuplicateContent = errors.New("content already saved")

	// ErrEmptyClusterName indicates the cluster Name field is empty.
	ErrEmptyClusterName = errors.New("cluster name cannot be empty")

	// ErrInvalidPriority indicates an invalid Priority value.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrInvalidStatusTransition indicates a backward processing-status move.
	ErrInvalidStatusTransition = errors.New("invalid processing status transition")
)
