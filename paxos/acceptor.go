package paxos

// acceptorHandlePrepare implements §4.2's Prepare handling. It is the
// ordinary Paxos acceptor rule and applies regardless of the replica's
// current role: every node answers Prepare and Accept as an acceptor, not
// only while it happens to be Follower. A Prepare whose Number is the zero
// BallotNumber (a low prepare) can never satisfy the strict ">" test below,
// so it is never journaled as a promise — exactly the guarantee §9 and the
// glossary call for.
func acceptorHandlePrepare(data PaxosData, j Journal, self PaxosAgent, prepare Prepare) (PaxosData, PrepareResponse, error) {
	promised := data.Progress.HighestPromised
	if promised.Less(prepare.ID.Number) {
		newProgress := Progress{HighestPromised: prepare.ID.Number, HighestCommitted: data.Progress.HighestCommitted}
		if err := j.SaveProgress(newProgress); err != nil {
			return data, PrepareResponse{}, JournalFailureError{Err: err}
		}
		data.Progress = newProgress

		var accepted *Accept
		if a, ok, err := j.Accepted(prepare.ID.Slot); err != nil {
			return data, PrepareResponse{}, JournalFailureError{Err: err}
		} else if ok {
			accepted = &a
		}

		return data, PrepareResponse{
			ID:              prepare.ID,
			From:            self.NodeId,
			OK:              true,
			Progress:        newProgress,
			LeaderHeartbeat: data.LeaderHeartbeat,
			Accepted:        accepted,
		}, nil
	}

	return data, PrepareResponse{
		ID:              prepare.ID,
		From:            self.NodeId,
		OK:              false,
		Progress:        data.Progress,
		LeaderHeartbeat: data.LeaderHeartbeat,
	}, nil
}

// acceptorHandleAccept implements §4.2's Accept handling, likewise
// role-independent.
func acceptorHandleAccept(data PaxosData, j Journal, self PaxosAgent, accept AcceptMsg) (PaxosData, AcceptResponse, error) {
	promised := data.Progress.HighestPromised
	number := accept.Accept.ID.Number

	if promised.Less(number) || promised.Equal(number) {
		if err := j.Accept(accept.Accept); err != nil {
			return data, AcceptResponse{}, JournalFailureError{Err: err}
		}
		if promised.Less(number) {
			newProgress := Progress{HighestPromised: number, HighestCommitted: data.Progress.HighestCommitted}
			if err := j.SaveProgress(newProgress); err != nil {
				return data, AcceptResponse{}, JournalFailureError{Err: err}
			}
			data.Progress = newProgress
		}
		return data, AcceptResponse{
			ID:       accept.Accept.ID,
			From:     self.NodeId,
			OK:       true,
			Progress: data.Progress,
		}, nil
	}

	return data, AcceptResponse{
		ID:       accept.Accept.ID,
		From:     self.NodeId,
		OK:       false,
		Progress: data.Progress,
	}, nil
}
