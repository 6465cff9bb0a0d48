// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package callgraph is the in-memory directed multigraph of function
// nodes and call sites: forward/reverse adjacency, bounded neighbor
// queries, call-chain enumeration, and an interface-implementation
// registry. A CallGraph is owned by the request that built it and is
// never shared across concurrent requests.
package callgraph

// CallType classifies how one function invokes another.
type CallType string

const (
	CallDirect      CallType = "direct"
	CallMethod      CallType = "method"
	CallConstructor CallType = "constructor"
	CallLambda      CallType = "lambda"
	CallIndirect    CallType = "indirect"
)

// FunctionNode is a single function/method definition.
type FunctionNode struct {
	Name          string
	QualifiedName string
	FilePath      string
	Language      string
	StartLine     int
	EndLine       int
	IsExported    bool
	IsAsync       bool
	Parameters    []string
	ReturnType    string
}

// CallSite is one textual location where one function calls another.
type CallSite struct {
	CallerFunction string
	CallerFile     string
	CallerLine     int
	CalleeFunction string
	CalleeFile     string
	CallType       CallType
}

// InterfaceImplementation records that a concrete type implements an interface.
type InterfaceImplementation struct {
	InterfaceName      string
	ImplementationName string
	FilePath           string
	Language           string
	Methods            []string
}

// Statistics summarizes the size of a CallGraph.
type Statistics struct {
	FunctionCount       int
	CallCount           int
	InterfaceCount      int
	ImplementationCount int
}
