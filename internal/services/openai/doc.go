// Package openai adapts the official OpenAI SDK to reelcut's collaborator
// interfaces: CompleteJSON for the metadata generator and Transcribe for the
// transcript stage (whisper-1 verbose JSON segments become subtitle cues).
package openai
