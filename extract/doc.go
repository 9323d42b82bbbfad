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


// Package extract turns raw document bytes into plain text.
//
// An Extractor handles one family of media types; the Registry routes a
// document to the extractor registered for its (normalized) media type.
// Extraction failures are classified through the core error wrappers:
// unreadable input is permanent, everything environmental is transient.
//
// Built-in extractors cover plain text, PDF (via pdfcpu), and DOCX.
package extract
