/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage is the local persistence layer of the editor.
// A single SQLite database (modernc.org/sqlite, WAL mode) caches naval units
// pulled from the backend, their card layouts with a bounded version history,
// user templates, per-unit template states and small key/value entries such
// as the autocomplete dictionary.
// WriteFileAtomic provides transactional file writes for exports.
package storage
