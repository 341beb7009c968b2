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


// Package queue provides polling workers over the persistent job store.
//
// A Queue is a named view of the store: enqueue, atomic dequeue, terminal
// status marks, and depth counts. A Worker drains one queue in a loop,
// sleeping between empty polls and backing off exponentially on store
// errors. The Manager runs worker loops on a shared ants pool and handles
// coordinated shutdown.
//
// Delivery is at-most-once per job: dequeue removes the job before the
// process func runs, and a failed job is recorded as failed, never retried
// automatically. Explicit resubmission creates a fresh job.
package queue
